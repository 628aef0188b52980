package dataset

import (
	"bufio"
	"strconv"
	"strings"

	"github.com/emolens/emolens/errors"
	"github.com/emolens/emolens/fileutil"
	"github.com/emolens/emolens/labels"
)

// ReadClassTSV reads a closed-set corpus: one record per line, tab-separated
// text and comma-separated integer class ids. A single id becomes a
// closed-set record; multiple ids are resolved to names through space so the
// record stays name-keyed.
func ReadClassTSV(path string, space *labels.Space) ([]RawRecord, error) {
	return readTSV(path, func(text, label string, line int) (RawRecord, error) {
		parts := strings.Split(label, ",")

		if len(parts) == 1 {
			id, err := strconv.Atoi(strings.TrimSpace(parts[0]))
			if err != nil {
				return RawRecord{}, errors.Errorf("line %d: class id '%s' is not an integer", line, parts[0])
			}
			return RawRecord{Text: text, HasClassID: true, ClassID: id}, nil
		}

		var names []string
		for _, p := range parts {
			id, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return RawRecord{}, errors.Errorf("line %d: class id '%s' is not an integer", line, p)
			}
			name, err := space.Name(id)
			if err != nil {
				return RawRecord{}, errors.Wrapf(err, "line %d", line)
			}
			names = append(names, name)
		}
		return RawRecord{Text: text, LabelNames: names}, nil
	})
}

// ReadNamedTSV reads an open-set corpus: one record per line, tab-separated
// text and comma-separated label names. Names are not validated here; the
// adapter resolves them against the label space and counts mismatches.
func ReadNamedTSV(path string) ([]RawRecord, error) {
	return readTSV(path, func(text, label string, line int) (RawRecord, error) {
		var names []string
		for _, p := range strings.Split(label, ",") {
			p = strings.TrimSpace(p)
			if p != "" {
				names = append(names, p)
			}
		}
		return RawRecord{Text: text, LabelNames: names}, nil
	})
}

func readTSV(path string, parse func(text, label string, line int) (RawRecord, error)) ([]RawRecord, error) {
	f, err := fileutil.NewReader(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []RawRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1<<20), 1<<20)

	line := 0
	for scanner.Scan() {
		line++
		row := scanner.Text()
		if strings.TrimSpace(row) == "" {
			continue
		}

		parts := strings.SplitN(row, "\t", 3)
		if len(parts) < 2 {
			return nil, errors.Errorf("line %d: expected at least 2 tab-separated fields, got %d", line, len(parts))
		}

		rec, err := parse(parts[0], parts[1], line)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "error reading '%s'", path)
	}
	return records, nil
}
