package teams

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"hackathon-scoreboard/internal/scoring"
)

// Header is written as the first line of every saved file.
var Header = []string{"teamID", "teamName", "university", "category", "score1", "score2", "score3", "score4"}

const fieldCount = 8

// RowError is a non-fatal problem found while loading. Line is 1-based;
// zero means the error concerns the whole source.
type RowError struct {
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	if e.Line == 0 {
		return e.Message
	}
	return fmt.Sprintf("Line %d: %s", e.Line, e.Message)
}

// LoadFile replaces the registry with the teams read from path. A missing
// or unreadable file leaves the registry empty and yields a single error.
func (r *Registry) LoadFile(path string) []RowError {
	f, err := os.Open(path)
	if err != nil {
		r.Replace(nil)
		if errors.Is(err, fs.ErrNotExist) {
			return []RowError{{Message: fmt.Sprintf("FILE READ ERROR: '%s' not found. Using empty list.", path)}}
		}
		return []RowError{{Message: fmt.Sprintf("FILE READ ERROR: %v", err)}}
	}
	defer f.Close()
	return r.Load(f)
}

// Load replaces the registry with the rows of src. Bad rows are reported
// and skipped; the swap happens once parsing is done.
func (r *Registry) Load(src io.Reader) []RowError {
	ts, errs := ParseRecords(src)
	r.Replace(ts)
	return errs
}

// ParseRecords reads delimited team rows, one record per physical line,
// so a malformed row can never swallow the rows after it. Rows with a
// duplicate id are rejected so that the first occurrence wins.
func ParseRecords(src io.Reader) ([]Team, []RowError) {
	var (
		out  []Team
		errs []RowError
		seen = make(map[int]struct{})
	)
	br := bufio.NewReader(src)
	first := true
	for line := 1; ; line++ {
		text, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			errs = append(errs, RowError{Message: fmt.Sprintf("FILE READ ERROR: %v", err)})
			break
		}
		text = strings.TrimRight(text, "\r\n")
		if strings.TrimSpace(text) != "" {
			rec := splitRow(text)
			if first && isHeader(rec) {
				first = false
			} else {
				first = false
				t, msg := parseRow(rec)
				switch {
				case msg != "":
					errs = append(errs, RowError{Line: line, Message: msg})
				case hasID(seen, t.ID):
					errs = append(errs, RowError{Line: line, Message: fmt.Sprintf("Duplicate team ID %d", t.ID)})
				default:
					seen[t.ID] = struct{}{}
					out = append(out, t)
				}
			}
		}
		if err == io.EOF {
			break
		}
	}
	return out, errs
}

// splitRow reads one line with CSV quoting. A line that does not parse
// as a full record, such as an unescaped quote inside a name, falls back
// to a plain comma split.
func splitRow(line string) []string {
	cr := csv.NewReader(strings.NewReader(line))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	rec, err := cr.Read()
	if err != nil || len(rec) < fieldCount {
		return strings.Split(line, ",")
	}
	return rec
}

func hasID(seen map[int]struct{}, id int) bool {
	_, ok := seen[id]
	return ok
}

// parseRow turns one record into a team. More than eight fields means the
// team name held unquoted commas: id, university, category and the scores
// are taken from the ends and the rest is joined back into the name.
func parseRow(rec []string) (Team, string) {
	n := len(rec)
	if n < fieldCount {
		return Team{}, fmt.Sprintf("Missing fields (expected %d, found %d)", fieldCount, n)
	}
	for i := range rec {
		rec[i] = strings.TrimSpace(rec[i])
	}

	id, err := strconv.Atoi(rec[0])
	if err != nil {
		return Team{}, fmt.Sprintf("Number format error: team ID %q is not an integer", rec[0])
	}
	if id <= 0 {
		return Team{}, fmt.Sprintf("Team ID must be positive, got %d", id)
	}

	name := strings.Join(rec[1:n-6], ",")
	uni, cat := rec[n-6], rec[n-5]
	switch {
	case name == "":
		return Team{}, "Missing team name"
	case uni == "":
		return Team{}, "Missing university"
	case cat == "":
		return Team{}, "Missing category"
	}

	scores := make([]int, scoring.ScoreCount)
	for i, field := range rec[n-scoring.ScoreCount:] {
		v, err := strconv.Atoi(field)
		if err != nil {
			return Team{}, fmt.Sprintf("Number format error: %s score %q is not an integer", scoring.Criteria[i], field)
		}
		if !scoring.InRange(v) {
			return Team{}, fmt.Sprintf("%s score %d out of range [%d,%d]", scoring.Criteria[i], v, scoring.MinScore, scoring.MaxScore)
		}
		scores[i] = v
	}
	return NewTeam(id, name, uni, cat, scores), ""
}

func isHeader(rec []string) bool {
	line := strings.ToLower(strings.Join(rec, ","))
	return strings.Contains(line, "team id") || strings.HasPrefix(line, "teamid")
}

// SaveFile writes the registry to path, replacing the file.
func (r *Registry) SaveFile(path string) error {
	return WriteFile(path, r.Snapshot())
}

// WriteFile writes ts to path in the record format, replacing the file.
func WriteFile(path string, ts []Team) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save teams: %w", err)
	}
	if err := WriteRecords(f, ts); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("save teams: %w", err)
	}
	return nil
}

// Save writes the header and one row per team in insertion order. Fields
// with commas or quotes are quoted with inner quotes doubled.
func (r *Registry) Save(w io.Writer) error {
	return WriteRecords(w, r.Snapshot())
}

func WriteRecords(w io.Writer, ts []Team) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("save teams: %w", err)
	}
	for _, t := range ts {
		row := []string{strconv.Itoa(t.ID), t.Name, t.University, t.Category}
		for _, s := range t.Scores {
			row = append(row, strconv.Itoa(s))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("save teams: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("save teams: %w", err)
	}
	return nil
}
