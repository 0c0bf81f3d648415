// Package ftpsource pulls supplier catalog files from the supplier's own FTP
// server, for suppliers who publish a fresh export on a schedule instead of
// uploading by hand.
package ftpsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/stocklane-platform/api/internal/csvfile"
	"github.com/stocklane-platform/api/internal/ingest"
	"github.com/stocklane-platform/api/internal/store"
)

var ErrNotConfigured = errors.New("supplier has no ftp source configured")

// Descriptor holds the connection details for one supplier's FTP drop.
type Descriptor struct {
	Host     string
	Username string
	Password string
	Path     string
}

// FromSupplier builds a descriptor from the supplier record, or
// ErrNotConfigured when the FTP fields are incomplete.
func FromSupplier(s store.Supplier) (Descriptor, error) {
	if !s.HasFTPSource() {
		return Descriptor{}, ErrNotConfigured
	}
	return Descriptor{
		Host:     *s.FTPHost,
		Username: *s.FTPUsername,
		Password: *s.FTPPassword,
		Path:     *s.FTPPath,
	}, nil
}

// Source fetches and parses the remote file on demand.
type Source struct {
	Descriptor  Descriptor
	DialTimeout time.Duration
	ReadTimeout time.Duration
	MaxRows     int
}

// Rows connects, authenticates, retrieves the configured path, and parses it
// as a CSV export. Every failure mode surfaces as a plain error; the caller
// wraps it into its source-unavailable taxonomy.
func (s *Source) Rows(ctx context.Context) (ingest.RowSet, error) {
	dialTimeout := s.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 15 * time.Second
	}

	addr := s.Descriptor.Host
	if !hasPort(addr) {
		addr += ":21"
	}

	conn, err := ftp.Dial(addr,
		ftp.DialWithContext(ctx),
		ftp.DialWithTimeout(dialTimeout),
		ftp.DialWithShutTimeout(dialTimeout),
	)
	if err != nil {
		return ingest.RowSet{}, fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Quit()

	if err := conn.Login(s.Descriptor.Username, s.Descriptor.Password); err != nil {
		return ingest.RowSet{}, fmt.Errorf("login: %w", err)
	}

	resp, err := conn.Retr(s.Descriptor.Path)
	if err != nil {
		return ingest.RowSet{}, fmt.Errorf("retrieve %s: %w", s.Descriptor.Path, err)
	}
	defer resp.Close()

	if s.ReadTimeout > 0 {
		if err := resp.SetDeadline(time.Now().Add(s.ReadTimeout)); err != nil {
			return ingest.RowSet{}, fmt.Errorf("set read deadline: %w", err)
		}
	}

	data, err := io.ReadAll(resp)
	if err != nil {
		return ingest.RowSet{}, fmt.Errorf("read %s: %w", s.Descriptor.Path, err)
	}

	return csvfile.Parse(data, s.MaxRows)
}

func hasPort(host string) bool {
	for i := len(host) - 1; i >= 0; i-- {
		switch host[i] {
		case ':':
			return true
		case ']':
			return false
		}
	}
	return false
}
