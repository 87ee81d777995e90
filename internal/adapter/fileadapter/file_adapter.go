// Package fileadapter is a CSV-backed rbacguard.PolicyAdapter: one row per
// line, the Casbin convention of a leading ptype column ("p", "p2", "g",
// "g2", ...) followed by the rule's values, comments and blank lines
// skipped.
package fileadapter

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alexedwards/argon2id"

	"github.com/sentinelgate/rbacguard/internal/rbacguard"
)

// Adapter loads and saves policy rows from a CSV file on disk.
type Adapter struct {
	path   string
	logger *slog.Logger
}

// Option configures an Adapter at construction time.
type Option func(*Adapter)

// WithLogger attaches a logger for load/save diagnostics. The zero value
// (nil) makes every log call a no-op.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) { a.logger = logger }
}

// New creates an Adapter reading from and writing to path.
func New(path string, opts ...Option) *Adapter {
	a := &Adapter{path: path}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// LoadPolicy reads every data row from the CSV file. A missing file is
// reported as zero rows, matching Casbin's own file adapter behavior of
// treating an absent policy file as an empty policy.
func (a *Adapter) LoadPolicy(ctx context.Context) ([]rbacguard.PolicyRow, error) {
	f, err := os.Open(a.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("fileadapter: opening %s: %w", a.path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	var rows []rbacguard.PolicyRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("fileadapter: reading %s: %w", a.path, err)
		}
		row, ok := parseRecord(record)
		if !ok {
			a.logf("fileadapter: skipping malformed row", "path", a.path, "record", record)
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// SavePolicy overwrites the file with rows, one CSV line per row in the
// form "ptype,value1,value2,...".
func (a *Adapter) SavePolicy(ctx context.Context, rows []rbacguard.PolicyRow) error {
	f, err := os.Create(a.path)
	if err != nil {
		return fmt.Errorf("fileadapter: creating %s: %w", a.path, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	for _, row := range rows {
		record := append([]string{row.PType}, row.Values...)
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("fileadapter: writing row %v: %w", record, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func (a *Adapter) logf(msg string, args ...any) {
	if a.logger == nil {
		return
	}
	a.logger.Warn(msg, args...)
}

// parseRecord turns one CSV record into a PolicyRow. ptype determines the
// section: anything starting with "g" is a role-definition row, everything
// else (by convention "p", "p2", ...) is a policy row.
func parseRecord(record []string) (rbacguard.PolicyRow, bool) {
	if len(record) == 0 {
		return rbacguard.PolicyRow{}, false
	}
	ptype := strings.TrimSpace(record[0])
	if ptype == "" {
		return rbacguard.PolicyRow{}, false
	}

	values := make([]string, 0, len(record)-1)
	for _, v := range record[1:] {
		values = append(values, strings.TrimSpace(v))
	}

	section := "p"
	if strings.HasPrefix(ptype, "g") {
		section = "g"
	}
	return rbacguard.PolicyRow{Section: section, PType: ptype, Values: values}, true
}

// ChecksumPath returns the sidecar file path Verify/WriteChecksum operate on.
func (a *Adapter) ChecksumPath() string {
	return a.path + ".sum"
}

// WriteChecksum hashes the current file contents with argon2id and writes
// the resulting phc-formatted hash to ChecksumPath, so a later VerifyChecksum
// call can detect out-of-band edits to the policy file.
func (a *Adapter) WriteChecksum(ctx context.Context) error {
	contents, err := os.ReadFile(a.path)
	if err != nil {
		return fmt.Errorf("fileadapter: reading %s for checksum: %w", a.path, err)
	}
	hash, err := argon2id.CreateHash(string(contents), argon2id.DefaultParams)
	if err != nil {
		return fmt.Errorf("fileadapter: hashing %s: %w", a.path, err)
	}
	if err := os.WriteFile(a.ChecksumPath(), []byte(hash), 0o600); err != nil {
		return fmt.Errorf("fileadapter: writing %s: %w", a.ChecksumPath(), err)
	}
	return nil
}

// VerifyChecksum reports whether the file's current contents match the hash
// recorded by the last WriteChecksum call. A missing sidecar file is treated
// as "nothing to verify against": it reports false with a nil error.
func (a *Adapter) VerifyChecksum(ctx context.Context) (bool, error) {
	storedHash, err := os.ReadFile(a.ChecksumPath())
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("fileadapter: reading %s: %w", a.ChecksumPath(), err)
	}
	contents, err := os.ReadFile(a.path)
	if err != nil {
		return false, fmt.Errorf("fileadapter: reading %s: %w", a.path, err)
	}
	match, err := argon2id.ComparePasswordAndHash(string(contents), string(storedHash))
	if err != nil {
		return false, fmt.Errorf("fileadapter: comparing checksum for %s: %w", a.path, err)
	}
	return match, nil
}

var (
	_ rbacguard.PolicyAdapter       = (*Adapter)(nil)
	_ rbacguard.SavingPolicyAdapter = (*Adapter)(nil)
)
