package registry

import "github.com/mdverse/mddata/internal/domain"

// builtinCatalog lists the datasets shipped with the tool. The figshare zip
// archives change checksum on every download, so each file is pinned and
// downloaded individually.
var builtinCatalog = []domain.Dataset{
	{
		ID:   "adk_equilibrium",
		Name: "AdK equilibrium trajectory (without water)",
		Description: "MD trajectory of apo adenylate kinase with CHARMM27 force field, " +
			"simulated with explicit water and ions in NPT at 300 K and 1 bar. " +
			"Saved every 240 ps for a total of 1.004 us, solvent stripped and " +
			"superimposed on the CORE domain of AdK. Topology in CHARMM PSF " +
			"format, trajectory in CHARMM/NAMD DCD format.",
		License: "CC-BY 4.0",
		Source:  "https://doi.org/10.6084/m9.figshare.5108170.v1",
		Files: []domain.RemoteFile{
			{
				Key:      "topology",
				Filename: "adk4AKE.psf",
				URL:      "https://ndownloader.figshare.com/files/8672230",
				Checksum: "1aa947d58fb41b6805dc1e7be4dbe65c6a8f4690f0bd7fc2ae03e7bd437085f4",
			},
			{
				Key:      "trajectory",
				Filename: "1ake_007-nowater-core-dt240ps.dcd",
				URL:      "https://ndownloader.figshare.com/files/8672074",
				Checksum: "598fcbcfcc425f6eafbe9997238320fcacc6a4613ecce061e1521732bab734bf",
			},
		},
	},
	{
		ID:   "ifabp_water",
		Name: "I-FABP with water 0.5 ns equilibrium trajectory",
		Description: "Short equilibrium trajectory of intestinal fatty acid binding " +
			"protein (I-FABP) in water. Topology in CHARMM PSF format, starting " +
			"structure in PDB format, trajectory in DCD format.",
		License: "CC-BY 4.0",
		Source:  "https://doi.org/10.6084/m9.figshare.7058030.v1",
		Files: []domain.RemoteFile{
			{
				Key:      "topology",
				Filename: "ifabp_water.psf",
				URL:      "https://ndownloader.figshare.com/files/12980639",
				Checksum: "ba40714318aabec537015dc550fe5bd5ac1ac0b853f5abdd2f0ae63af9cfcafa",
			},
			{
				Key:      "structure",
				Filename: "ifabp_water_0.pdb",
				URL:      "https://ndownloader.figshare.com/files/12980636",
				Checksum: "8ccf5f75fd85385921c0cb77f00281a93b933fc1261c42fc9492f43983448a72",
			},
			{
				Key:      "trajectory",
				Filename: "rmsfit_ifabp_water_1.dcd",
				URL:      "https://ndownloader.figshare.com/files/12980642",
				Checksum: "cebb48e58015abc8ff2f5bb7ba3eb7a289047f256351a8252bf1f29f9aaacf0e",
			},
		},
	},
}
