package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type fakeSNSClient struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNSClient) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-123")}, nil
}

func TestSNSNotifierPublishSuccess(t *testing.T) {
	client := &fakeSNSClient{}
	n := &snsNotifier{
		id:       "topic",
		typ:      TypeSNS,
		topicARN: "arn:aws:sns:::datasets",
		client:   client,
		log:      noopLogger{},
	}

	err := n.Notify(context.Background(), NewEvent("ifabp_water", "I-FABP", nil, 0))
	if err != nil {
		t.Fatalf("Notify returned error: %v", err)
	}
	if client.input == nil {
		t.Fatalf("client was not called")
	}
	if got := aws.ToString(client.input.TopicArn); got != "arn:aws:sns:::datasets" {
		t.Fatalf("TopicArn = %s", got)
	}
	attr, ok := client.input.MessageAttributes["dataset_id"]
	if !ok || attr.StringValue == nil || aws.ToString(attr.StringValue) != "ifabp_water" {
		t.Fatalf("dataset_id attribute missing or wrong: %#v", attr)
	}
	if attr.DataType == nil || aws.ToString(attr.DataType) != "String" {
		t.Fatalf("DataType should be String, got %#v", attr.DataType)
	}
	if client.input.Message == nil || !strings.Contains(aws.ToString(client.input.Message), `"dataset_id":"ifabp_water"`) {
		t.Fatalf("Message missing dataset_id: %s", aws.ToString(client.input.Message))
	}
}

func TestSNSNotifierPublishError(t *testing.T) {
	client := &fakeSNSClient{err: errors.New("boom")}
	n := &snsNotifier{
		id:       "topic",
		typ:      TypeSNS,
		topicARN: "arn:aws:sns:::datasets",
		client:   client,
		log:      noopLogger{},
	}

	if err := n.Notify(context.Background(), Event{DatasetID: "x"}); err == nil {
		t.Fatalf("expected error from failing client")
	}
}
