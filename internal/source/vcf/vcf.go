// Package vcf implements the anniversary source on top of a vCard address
// book, read from a local .vcf file or a WebDAV export. Rows keep their
// stored date strings untouched; the aggregation core parses them.
package vcf

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"time"

	"github.com/emersion/go-vcard"
	"github.com/zalando/go-keyring"

	appLog "upnext/internal/log"
	"upnext/internal/model"
	"upnext/internal/source"
)

// vCard property names this source reads.
const (
	fieldFormattedName = "FN"
	fieldName          = "N"
	fieldBirthday      = "BDAY"
	fieldAnniversary   = "ANNIVERSARY"
)

// keyringService is the OS keyring service name consulted when a web
// source is configured with a username but no password.
const keyringService = "upnext"

const fallbackName = "Unknown"

// Source modes.
const (
	ModeLocal = "local"
	ModeWeb   = "web"
)

// Source reads contact anniversaries from a vCard collection.
type Source struct {
	Mode     string
	Path     string // local .vcf path (ModeLocal)
	URL      string // WebDAV export URL (ModeWeb)
	Username string
	Password string

	// Client is the HTTP client for web mode. Nil uses a default with a
	// 15s timeout.
	Client *http.Client
}

var _ source.AnniversarySource = (*Source)(nil)

// Anniversaries implements source.AnniversarySource. Cards that fail to
// decode or carry no date are skipped; rows come back sorted by their
// stored date string ascending.
func (s *Source) Anniversaries(ctx context.Context) ([]model.Anniversary, error) {
	r, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	dec := vcard.NewDecoder(r)
	rows := make([]model.Anniversary, 0)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		card, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			appLog.Warn("skipping undecodable vcard", "err", err)
			continue
		}

		name := fallbackName
		if fn := card.Get(fieldFormattedName); fn != nil && fn.Value != "" {
			name = fn.Value
		} else if n := card.Get(fieldName); n != nil && n.Value != "" {
			name = n.Value
		}

		if f := card.Get(fieldBirthday); f != nil && f.Value != "" {
			rows = append(rows, row(name, f.Value, model.TypeBirthday))
		}
		if f := card.Get(fieldAnniversary); f != nil && f.Value != "" {
			rows = append(rows, row(name, f.Value, model.TypeAnniversary))
		}
	}

	// The address book contract sorts by stored date string ascending.
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].StartDate < rows[j].StartDate
	})
	return rows, nil
}

func row(name, date string, typ model.AnniversaryType) model.Anniversary {
	return model.Anniversary{
		ContactID:   contactID(name, date),
		DisplayName: name,
		StartDate:   date,
		Type:        typ,
	}
}

// contactID derives a stable positive identity from the card contents, so
// the same contact keeps its id across refreshes.
func contactID(name, date string) int64 {
	sum := sha256.Sum256([]byte(name + "|" + date))
	return int64(binary.BigEndian.Uint64(sum[:8]) &^ (1 << 63))
}

func (s *Source) open(ctx context.Context) (io.ReadCloser, error) {
	switch s.Mode {
	case ModeLocal:
		if s.Path == "" {
			return nil, errors.New("vcf: local path is empty")
		}
		return os.Open(s.Path)
	case ModeWeb:
		return s.fetch(ctx)
	default:
		return nil, fmt.Errorf("vcf: unsupported mode %q", s.Mode)
	}
}

func (s *Source) fetch(ctx context.Context) (io.ReadCloser, error) {
	if s.URL == "" {
		return nil, errors.New("vcf: web URL is empty")
	}
	u, err := url.Parse(s.URL)
	if err != nil {
		return nil, fmt.Errorf("vcf: invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("vcf: unsupported scheme %q", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}

	user, pass := s.Username, s.Password
	if user != "" && pass == "" {
		// Password omitted from the config file: try the OS keyring.
		if secret, kerr := keyring.Get(keyringService, user); kerr == nil {
			pass = secret
		} else {
			appLog.Warn("no keyring credential for vcf source", "err", kerr, "user", user)
		}
	}
	if user != "" || pass != "" {
		req.SetBasicAuth(user, pass)
	}

	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("vcf: unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}
