// Package msp provides streaming readers for MSP (NIST/Prosit) format spectral libraries
package msp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/ChrisMcGann/pepcalc/pkg/core"
	"github.com/ChrisMcGann/pepcalc/pkg/reader"
)

var _ reader.Source = (*Reader)(nil)

// Reader provides streaming access to MSP format files
type Reader struct {
	scanner *bufio.Scanner
	modDB   *core.ModDatabase
	lineNum int
	pending string // "Name:" line that terminated the previous entry
	current *reader.Entry
	err     error
}

// NewReader creates a new MSP reader
func NewReader(r io.Reader, modDB *core.ModDatabase) *Reader {
	if modDB == nil {
		modDB = core.DefaultModDatabase()
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	return &Reader{
		scanner: scanner,
		modDB:   modDB,
	}
}

// NewReaderEncoding creates an MSP reader decoding input from the named
// character encoding (e.g. "latin1", "windows-1252"). An empty name means UTF-8.
func NewReaderEncoding(r io.Reader, encoding string, modDB *core.ModDatabase) (*Reader, error) {
	if encoding != "" {
		decoded, err := charset.NewReaderLabel(encoding, r)
		if err != nil {
			return nil, fmt.Errorf("unsupported encoding '%s': %w", encoding, err)
		}
		r = decoded
	}
	return NewReader(r, modDB), nil
}

// Next advances to the next entry. Returns false when no more entries or error.
func (r *Reader) Next() bool {
	r.current = nil

	entry, err := r.readEntry()
	if err != nil {
		if err != io.EOF {
			r.err = err
		}
		return false
	}

	r.current = entry
	return true
}

// Entry returns the current entry
func (r *Reader) Entry() *reader.Entry {
	return r.current
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) nextLine() (string, bool) {
	if r.pending != "" {
		line := r.pending
		r.pending = ""
		return line, true
	}
	if !r.scanner.Scan() {
		return "", false
	}
	r.lineNum++
	return strings.TrimSpace(r.scanner.Text()), true
}

// readEntry reads a single entry from the MSP file
func (r *Reader) readEntry() (*reader.Entry, error) {
	var entry *reader.Entry
	numPeaks := -1

scan:
	for {
		line, ok := r.nextLine()
		if !ok {
			break
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "Name:") {
			if entry != nil {
				r.pending = line
				break scan
			}
			entry = &reader.Entry{Modifications: make(map[int]float64), SourceFormat: "msp"}
			if err := parseName(entry, strings.TrimSpace(strings.TrimPrefix(line, "Name:"))); err != nil {
				return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
			}
			continue
		}
		if entry == nil {
			return nil, fmt.Errorf("line %d: expected 'Name:' field, got '%s'", r.lineNum, line)
		}

		switch {
		case strings.HasPrefix(line, "Comment:"):
			if err := r.parseComment(entry, strings.TrimPrefix(line, "Comment:")); err != nil {
				return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
			}
		case strings.HasPrefix(line, "Num peaks:"), strings.HasPrefix(line, "Num Peaks:"):
			n, err := strconv.Atoi(strings.TrimSpace(line[len("Num peaks:"):]))
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid num peaks: %w", r.lineNum, err)
			}
			numPeaks = n
		case strings.HasPrefix(line, "MW:"), strings.HasPrefix(line, "PrecursorMZ:"):
			// recomputed from the sequence
		default:
			if numPeaks < 0 {
				continue
			}
			peak, err := parsePeak(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
			}
			entry.Peaks = append(entry.Peaks, peak)
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, io.EOF
	}
	if numPeaks >= 0 && len(entry.Peaks) != numPeaks {
		return nil, fmt.Errorf("entry %s: expected %d peaks, read %d", entry.Name(), numPeaks, len(entry.Peaks))
	}
	return entry, nil
}

// parseName extracts sequence and charge from Name field (format: "SEQUENCE/CHARGE")
func parseName(entry *reader.Entry, name string) error {
	parts := strings.Split(name, "/")
	if len(parts) != 2 {
		return fmt.Errorf("invalid name format '%s', expected 'SEQUENCE/CHARGE'", name)
	}

	entry.Sequence = parts[0]
	chargeFields := strings.Fields(parts[1])
	if len(chargeFields) == 0 {
		return fmt.Errorf("missing charge in name '%s'", name)
	}
	charge, err := strconv.Atoi(chargeFields[0])
	if err != nil {
		return fmt.Errorf("invalid charge in name '%s': %w", name, err)
	}
	entry.Charge = charge

	return nil
}

// parseComment extracts metadata from Comment field
// Example: Parent=414.71 Mods=2/0,C,Carbamidomethyl/8,M,Oxidation Protein=sp|P02769|ALBU_BOVIN
func (r *Reader) parseComment(entry *reader.Entry, comment string) error {
	for _, field := range strings.Fields(comment) {
		parts := strings.SplitN(field, "=", 2)
		if len(parts) != 2 {
			continue
		}

		switch parts[0] {
		case "Parent":
			if mz, err := strconv.ParseFloat(parts[1], 64); err == nil {
				entry.PrecursorMZ = mz
			}
		case "Protein":
			entry.Protein = strings.Trim(parts[1], "\"")
		case "Mods":
			if err := r.parseMods(entry, parts[1]); err != nil {
				return err
			}
		}
	}
	return nil
}

// parseMods parses "N/pos,AA,Name/pos,AA,Name..." where pos is 0-based and
// -1 marks the N-terminus.
func (r *Reader) parseMods(entry *reader.Entry, modsStr string) error {
	groups := strings.Split(modsStr, "/")
	count, err := strconv.Atoi(groups[0])
	if err != nil {
		return fmt.Errorf("invalid mods count in '%s': %w", modsStr, err)
	}
	if count != len(groups)-1 {
		return fmt.Errorf("mods '%s' declares %d modifications, found %d", modsStr, count, len(groups)-1)
	}

	for _, group := range groups[1:] {
		fields := strings.Split(group, ",")
		if len(fields) != 3 {
			return fmt.Errorf("invalid modification '%s', expected 'pos,AA,Name'", group)
		}

		pos, err := strconv.Atoi(fields[0])
		if err != nil {
			return fmt.Errorf("invalid modification position '%s': %w", fields[0], err)
		}
		if pos < 0 {
			pos = 0
		}

		mass, err := r.modDB.Resolve(fields[2])
		if err != nil {
			return err
		}
		entry.Modifications[pos+1] += mass
	}
	return nil
}

// parsePeak parses a single peak line (format: "mz\tintensity\t\"annotation\"")
func parsePeak(line string) (reader.Peak, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return reader.Peak{}, fmt.Errorf("invalid peak format, expected at least 2 fields")
	}

	mz, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return reader.Peak{}, fmt.Errorf("invalid m/z value: %w", err)
	}

	intensity, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return reader.Peak{}, fmt.Errorf("invalid intensity value: %w", err)
	}

	peak := reader.Peak{MZ: mz, Intensity: intensity}

	if len(fields) >= 3 {
		annotation := strings.Trim(fields[2], "\"")
		// keep the first interpretation, drop mass error info
		annotation = strings.SplitN(annotation, ",", 2)[0]
		annotation = strings.SplitN(annotation, "/", 2)[0]
		peak.Annotation = annotation
	}

	return peak, nil
}
