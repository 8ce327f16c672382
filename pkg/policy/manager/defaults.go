package manager

import (
	"htem/fanc/pkg/policy/engine"
	"htem/fanc/pkg/vocab"
)

// Built-in table names.
const (
	NeuronInformationTable = "neuron_information"
	ProofreadingNotesTable = "proofreading_notes"
)

// NeuronInformationHelpURL documents the neuron_information vocabulary.
const NeuronInformationHelpURL = "https://github.com/htem/FANC_auto_recon/wiki/Neuron-annotations#neuron_information"

func leaves(names ...string) vocab.Tree {
	t := make(vocab.Tree, len(names))
	for i, n := range names {
		t[i] = vocab.Entry{Name: n}
	}
	return t
}

// NeuronInformationTree is the FANC neuron_information vocabulary.
func NeuronInformationTree() vocab.Tree {
	return vocab.Tree{
		{Name: "primary class", Children: vocab.Tree{
			{Name: "sensory neuron", Children: leaves(
				"chordotonal neuron",
				"bristle neuron",
				"hair plate neuron",
				"campaniform sensillum neuron",
				"descending neuron",
				"ascending neuron",
			)},
			{Name: "central neuron", Children: leaves(
				"descending neuron",
				"ascending neuron",
				"VNC interneuron",
			)},
			{Name: "motor neuron", Children: leaves(
				"T1 leg motor neuron",
				"T2 leg motor neuron",
				"T3 leg motor neuron",
				"neck motor neuron",
				"wing motor neuron",
				"haltere motor neuron",
				"abdominal motor neuron",
			)},
			{Name: "efferent non-motor neuron", Children: vocab.Tree{
				{Name: "UM neuron", Children: leaves(
					"T1 leg UM neuron",
					"T2 leg UM neuron",
					"T3 leg UM neuron",
					"neck UM neuron",
					"wing UM neuron",
					"haltere UM neuron",
					"abdominal UM neuron",
				)},
			}},
		}},
		{Name: "projection pattern", Children: leaves(
			"local",
			"intersegmental",
			"unilateral",
			"bilateral",
		)},
		{Name: "soma side", Children: leaves("left", "right", "midline")},
		{Name: "neuron identity"},
		{Name: "publication"},
	}
}

// NeuronInformationRules are the posting rules for neuron_information.
func NeuronInformationRules() engine.Rules {
	return engine.Rules{
		OpenClasses: []string{"neuron identity", "publication"},
		ExemptClasses: []string{
			"neuron identity",
			"publication",
			"projection pattern",
			"sensory neuron",
		},
		ExclusivityGroups: [][]string{
			{"unilateral", "bilateral"},
			{"local", "intersegmental"},
			{"ascending neuron", "descending neuron"},
			{"chordotonal neuron", "bristle neuron", "hair plate neuron", "campaniform sensillum neuron"},
		},
		HelpURL: NeuronInformationHelpURL,
	}
}

// ProofreadingNotes are the values allowed in proofreading_notes.
var ProofreadingNotes = []string{
	"backbone proofread",
	"thoroughly proofread",
	"orphan",
	"merge error",
}

// Defaults returns the built-in FANC tables.
func Defaults() []*engine.Table {
	return []*engine.Table{
		engine.NewTreeTable(NeuronInformationTable, NeuronInformationTree(), NeuronInformationRules()),
		engine.NewFlatTable(ProofreadingNotesTable, ProofreadingNotes, ""),
	}
}
