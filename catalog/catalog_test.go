package catalog_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/wudi/inventorkit/catalog"
	"github.com/wudi/inventorkit/internal/wirebuild"
)

func TestDecodeDbAllVersions(t *testing.T) {
	uid := uuid.MustParse("d4b14e1e-8b9a-4a2e-9c41-000000000001")
	for version := catalog.MinVersion; version <= catalog.MaxVersion; version++ {
		in := catalog.Db{
			Version:  version,
			UID:      uid,
			Kind:     catalog.KindPart,
			Flags:    7,
			Created:  1111,
			Modified: 2222,
			Comment:  "revision comment",
		}
		db, err := catalog.DecodeDb(wirebuild.EncodeDb(in))
		if err != nil {
			t.Fatalf("v%d: %v", version, err)
		}
		if db.Version != version || db.UID != uid || db.Kind != catalog.KindPart {
			t.Fatalf("v%d: header = %+v", version, db)
		}
		if version >= 4 && (db.Created != 1111 || db.Modified != 2222) {
			t.Fatalf("v%d: timestamps = %d/%d", version, db.Created, db.Modified)
		}
		if version >= 6 && db.Comment != "revision comment" {
			t.Fatalf("v%d: comment = %q", version, db.Comment)
		}
	}
}

func TestDecodeDbUnsupportedVersionIsBestEffort(t *testing.T) {
	in := catalog.Db{Version: 99, UID: uuid.Max, Kind: catalog.KindAssembly}
	db, err := catalog.DecodeDb(wirebuild.EncodeDb(in))
	if !errors.Is(err, catalog.ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
	if db == nil || db.Kind != catalog.KindAssembly || db.UID != uuid.Max {
		t.Fatalf("best-effort header missing: %+v", db)
	}
}

func segEntries(n int) []catalog.Entry {
	out := make([]catalog.Entry, n)
	for i := range out {
		out[i] = catalog.Entry{
			Name:       fmt.Sprintf("M%X", i),
			UID:        uuid.MustParse(fmt.Sprintf("9e1b0c5a-0000-4000-8000-%012x", i+1)),
			Type:       catalog.SegDC,
			Version:    6,
			Offset:     uint32(i * 128),
			Length:     128,
			Inflated:   256,
			Compressed: i%2 == 0,
			Checksum:   uint32(i),
		}
	}
	return out
}

func TestDecodeSegInfoAllVersions(t *testing.T) {
	// For all valid catalog versions, N declared entries decode to exactly N
	// records in file order.
	for version := catalog.MinVersion; version <= catalog.MaxVersion; version++ {
		for _, n := range []int{0, 1, 5} {
			in := segEntries(n)
			got, err := catalog.DecodeSegInfo(wirebuild.EncodeSegInfo(version, in), version)
			if err != nil {
				t.Fatalf("v%d n=%d: %v", version, n, err)
			}
			if len(got) != n {
				t.Fatalf("v%d: %d entries, want %d", version, len(got), n)
			}
			for i, e := range got {
				if e.Name != in[i].Name || e.UID != in[i].UID || e.Offset != in[i].Offset ||
					e.Compressed != in[i].Compressed || e.Type != catalog.SegDC {
					t.Fatalf("v%d entry %d = %+v, want %+v", version, i, e, in[i])
				}
				if version >= 5 && e.Checksum != uint32(i) {
					t.Fatalf("v%d entry %d checksum = %d", version, i, e.Checksum)
				}
			}
		}
	}
}

func TestDecodeSegInfoCountMismatch(t *testing.T) {
	data := wirebuild.EncodeSegInfo(6, segEntries(2))
	// Bump the declared count beyond what the bytes can hold.
	data[0] = 200
	if _, err := catalog.DecodeSegInfo(data, 6); !errors.Is(err, catalog.ErrCatalogCorrupt) {
		t.Fatalf("expected ErrCatalogCorrupt, got %v", err)
	}
}

func TestDecodeSegInfoUnsupportedVersion(t *testing.T) {
	data := wirebuild.EncodeSegInfo(6, segEntries(1))
	if _, err := catalog.DecodeSegInfo(data, 2); !errors.Is(err, catalog.ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestDecodeRevisions(t *testing.T) {
	in := []catalog.Revision{
		{UID: uuid.MustParse("11111111-2222-4333-8444-555555555555"), Index: 1, Label: "initial"},
		{UID: uuid.MustParse("aaaaaaaa-bbbb-4ccc-8ddd-eeeeeeeeeeee"), Index: 2, Label: "reworked flange"},
	}
	got, err := catalog.DecodeRevisions(wirebuild.EncodeRevisions(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[1].Label != "reworked flange" {
		t.Fatalf("revisions = %+v", got)
	}
}

func TestDecodeRevisionsCountMismatch(t *testing.T) {
	// A four-byte stream declaring sixteen million revisions must be rejected
	// up front, before any record storage is sized from the count.
	data := wirebuild.AppendUint32(nil, 16<<20)
	if _, err := catalog.DecodeRevisions(data); !errors.Is(err, catalog.ErrCatalogCorrupt) {
		t.Fatalf("expected ErrCatalogCorrupt, got %v", err)
	}
}
