// Package export serializes scan results to JSON, CSV and YAML files,
// optionally zstd-compressed.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"

	"github.com/bamsammich/dedupe/internal/engine"
	"github.com/bamsammich/dedupe/internal/stats"
)

// Format identifies an output encoding.
type Format int

const (
	JSON Format = iota
	CSV
	YAML
)

func (f Format) String() string {
	switch f {
	case CSV:
		return "csv"
	case YAML:
		return "yaml"
	default:
		return "json"
	}
}

// Compressed is the file suffix that selects zstd compression.
const Compressed = ".zst"

// FormatFor returns the format implied by the extension of path, ignoring a
// trailing ".zst". Unknown extensions are JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(strings.TrimSuffix(path, Compressed))) {
	case ".yaml", ".yml":
		return YAML
	case ".csv":
		return CSV
	default:
		return JSON
	}
}

// csvHeader lists the CSV columns, one row per file.
var csvHeader = []string{"group", "digest", "size", "wasted_space", "path", "modified"}

// Report is the serialized form of one scan.
type Report struct {
	Root       string         `json:"root" yaml:"root"`
	Algorithm  string         `json:"algorithm" yaml:"algorithm"`
	Generated  time.Time      `json:"generated" yaml:"generated"`
	Statistics stats.Snapshot `json:"statistics" yaml:"statistics"`
	Groups     []Group        `json:"groups" yaml:"groups"`
}

// Group is a DuplicateGroup with its member count spelled out.
type Group struct {
	Digest      string              `json:"digest" yaml:"digest"`
	Size        int64               `json:"size" yaml:"size"`
	Count       int                 `json:"count" yaml:"count"`
	WastedSpace int64               `json:"wasted_space" yaml:"wasted_space"`
	Files       []engine.FileRecord `json:"files" yaml:"files"`
}

// NewReport builds a Report from scan output. Groups keep their order.
func NewReport(root string, alg engine.Algorithm, groups []engine.DuplicateGroup, snap stats.Snapshot) Report {
	r := Report{
		Root:       root,
		Algorithm:  alg.String(),
		Generated:  time.Now().UTC().Truncate(time.Second),
		Statistics: snap,
		Groups:     make([]Group, len(groups)),
	}
	for i, g := range groups {
		r.Groups[i] = Group{
			Digest:      g.Digest,
			Size:        g.Size,
			Count:       g.Count(),
			WastedSpace: g.WastedSpace,
			Files:       g.Files,
		}
	}
	return r
}

// DuplicateGroups converts the report back into engine groups, keeping group
// and member order. Groups with fewer than two files are dropped and wasted
// space is recomputed from the members.
func (r Report) DuplicateGroups() []engine.DuplicateGroup {
	out := make([]engine.DuplicateGroup, 0, len(r.Groups))
	for _, g := range r.Groups {
		if len(g.Files) < 2 {
			continue
		}
		out = append(out, engine.DuplicateGroup{
			Digest:      g.Digest,
			Size:        g.Size,
			Files:       g.Files,
			WastedSpace: g.Size * int64(len(g.Files)-1),
		})
	}
	return out
}

// WriteJSON writes r as indented JSON.
func WriteJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteYAML writes r as a YAML document.
func WriteYAML(w io.Writer, r Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}

// WriteCSV writes one row per file. Groups are numbered from 1 in report
// order.
func WriteCSV(w io.Writer, r Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for i, g := range r.Groups {
		for _, f := range g.Files {
			row := []string{
				strconv.Itoa(i + 1),
				g.Digest,
				strconv.FormatInt(g.Size, 10),
				strconv.FormatInt(g.WastedSpace, 10),
				f.Path,
				f.ModTime.Format(time.RFC3339),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// Write encodes r to w in the given format.
func Write(w io.Writer, format Format, r Report) error {
	switch format {
	case CSV:
		return WriteCSV(w, r)
	case YAML:
		return WriteYAML(w, r)
	default:
		return WriteJSON(w, r)
	}
}

// WriteFile encodes r to path. A ".zst" suffix compresses the output with
// zstd. The file is written next to its final name and renamed into place.
func WriteFile(path string, format Format, r Report) (err error) {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			f.Close()
			_ = os.Remove(tmp)
		}
	}()

	var w io.Writer = f
	var enc *zstd.Encoder
	if strings.HasSuffix(path, Compressed) {
		enc, err = zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return fmt.Errorf("zstd encoder: %w", err)
		}
		w = enc
	}

	if err = Write(w, format, r); err != nil {
		return fmt.Errorf("write %s %s: %w", format, path, err)
	}
	if enc != nil {
		if err = enc.Close(); err != nil {
			return fmt.Errorf("flush %s: %w", path, err)
		}
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// ReadFile decodes a JSON or YAML report written by WriteFile, transparently
// decompressing ".zst" files. It backs --from.
func ReadFile(path string, format Format) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return Report{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, Compressed) {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return Report{}, fmt.Errorf("zstd decoder: %w", err)
		}
		defer dec.Close()
		r = dec
	}

	var rep Report
	switch format {
	case JSON:
		err = json.NewDecoder(r).Decode(&rep)
	case YAML:
		err = yaml.NewDecoder(r).Decode(&rep)
	default:
		return Report{}, errors.New("csv reports cannot be read back")
	}
	if err != nil {
		return Report{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return rep, nil
}
