package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"sigs.k8s.io/yaml"

	"github.com/gitgem/gitgem/pkg/spec"
)

const (
	formatText = "text"
	formatYAML = "yaml"
	formatJSON = "json"
)

func validateFormat(format string) error {
	switch format {
	case formatText, formatYAML, formatJSON:
		return nil
	default:
		return fmt.Errorf("unknown output format %q, want text, yaml or json", format)
	}
}

// specEntry is a specification as printed, with its path relative to the
// install directory.
type specEntry struct {
	*spec.Specification
	File string `json:"file"`
}

func writeSpecs(w io.Writer, format, dir string, specs []*spec.Specification) error {
	entries := make([]specEntry, 0, len(specs))
	for _, s := range specs {
		rel, err := filepath.Rel(dir, s.Path)
		if err != nil {
			rel = s.Path
		}
		entries = append(entries, specEntry{Specification: s, File: filepath.ToSlash(rel)})
	}

	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case formatYAML:
		data, err := yaml.Marshal(entries)
		if err != nil {
			return fmt.Errorf("marshaling specifications: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\n", e.FullName(), e.File)
		}
		return tw.Flush()
	}
}

type paths struct {
	Hash     string
	Cache    string
	Revision string
	Install  string
}

func (p paths) write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "hash\t%s\n", p.Hash)
	fmt.Fprintf(tw, "cache\t%s\n", p.Cache)
	if p.Revision != "" {
		fmt.Fprintf(tw, "revision\t%s\n", p.Revision)
	}
	if p.Install != "" {
		fmt.Fprintf(tw, "install\t%s\n", p.Install)
	}
	return tw.Flush()
}
