// Package manager loads governed annotation tables and keeps them available
// to the policy engine.
//
// Tables come from vocabulary files or from the built-in FANC defaults. A
// vocabulary file is YAML:
//
//	tables:
//	  neuron_information:
//	    kind: paired
//	    help_url: https://example.org/annotations
//	    open_classes: [neuron identity]
//	    exempt_classes: [neuron identity, projection pattern]
//	    exclusivity_groups:
//	      - [unilateral, bilateral]
//	    hierarchy:
//	      primary class:
//	        motor neuron:
//	        sensory neuron:
//	      projection pattern:
//	        unilateral:
//	        bilateral:
//	      neuron identity:
//	  proofreading_notes:
//	    kind: flat
//	    values: [backbone proofread, orphan]
//
// Each document is checked against an embedded JSON Schema before any table
// is built, and every hierarchy is checked for consistency with its rules.
//
// The Registry holds the current table set. Reloads build a complete new set
// and swap it in one step; tables already handed out are never modified.
//
// Basic usage:
//
//	m, err := manager.New(manager.Config{Path: "vocab/", IncludeDefaults: true}, logger)
//	if err != nil {
//		return err
//	}
//	if err := m.Load(); err != nil {
//		return err
//	}
//	eng, err := engine.New(m.Registry())
package manager
