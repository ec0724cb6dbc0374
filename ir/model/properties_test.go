package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/wudi/inventorkit/internal/wirebuild"
	"github.com/wudi/inventorkit/ir/model"
)

// encodePropertySet builds a single-section property set stream with the
// given {id, encoded value} pairs.
func encodePropertySet(fmtid uuid.UUID, props []struct {
	id    uint32
	value []byte
}) []byte {
	headerSize := 2 + 2 + 4 + 16 + 4 + 16 + 4
	var header []byte
	header = wirebuild.AppendUint16(header, 0xFFFE)
	header = wirebuild.AppendUint16(header, 0)
	header = wirebuild.AppendUint32(header, 2) // system id
	header = append(header, make([]byte, 16)...)
	header = wirebuild.AppendUint32(header, 1)
	header = wirebuild.AppendGUID(header, fmtid)
	header = wirebuild.AppendUint32(header, uint32(headerSize))

	table := 8 + 8*len(props)
	var slots, values []byte
	for _, p := range props {
		slots = wirebuild.AppendUint32(slots, p.id)
		slots = wirebuild.AppendUint32(slots, uint32(table+len(values)))
		values = append(values, p.value...)
	}
	section := wirebuild.AppendUint32(nil, uint32(table+len(values)))
	section = wirebuild.AppendUint32(section, uint32(len(props)))
	section = append(section, slots...)
	section = append(section, values...)
	return append(header, section...)
}

func lpstr(s string) []byte {
	b := wirebuild.AppendUint32(nil, 30)
	b = wirebuild.AppendUint32(b, uint32(len(s)+1))
	return append(append(b, s...), 0)
}

func lpwstr(s string) []byte {
	b := wirebuild.AppendUint32(nil, 31)
	return wirebuild.AppendLen32Text16(b, s+"\x00")
}

func ft(t time.Time) []byte {
	const epochDelta = 116444736000000000
	ticks := uint64(t.UnixNano()/100) + epochDelta
	b := wirebuild.AppendUint32(nil, 64)
	return wirebuild.AppendUint64(b, ticks)
}

func TestDecodeSummaryInformation(t *testing.T) {
	fmtid := uuid.MustParse("f29f85e0-4ff9-1068-ab91-08002b27b3d9")
	created := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	data := encodePropertySet(fmtid, []struct {
		id    uint32
		value []byte
	}{
		{2, lpstr("Bracket")},
		{4, lpwstr("Ann")},
		{12, ft(created)},
	})

	props, err := model.DecodePropertySet("SummaryInformation", data)
	if err != nil {
		t.Fatal(err)
	}
	if len(props) != 3 {
		t.Fatalf("props = %+v", props)
	}
	byName := map[string]interface{}{}
	for _, p := range props {
		byName[p.Name] = p.Value
	}
	if byName["Title"] != "Bracket" {
		t.Fatalf("Title = %v", byName["Title"])
	}
	if byName["Author"] != "Ann" {
		t.Fatalf("Author = %v", byName["Author"])
	}
	if got, ok := byName["CreationTime"].(time.Time); !ok || !got.Equal(created) {
		t.Fatalf("CreationTime = %v", byName["CreationTime"])
	}
}

func TestDecodePropertySetRejectsGarbage(t *testing.T) {
	if _, err := model.DecodePropertySet("x", []byte{1, 2, 3, 4}); err == nil {
		t.Fatal("garbage must not decode")
	}
}

func TestDecodePropertySetRejectsOverdeclaredCount(t *testing.T) {
	fmtid := uuid.MustParse("f29f85e0-4ff9-1068-ab91-08002b27b3d9")
	data := encodePropertySet(fmtid, []struct {
		id    uint32
		value []byte
	}{
		{2, lpstr("Bracket")},
	})
	// Patch the section's property count far beyond what the stream holds;
	// the slot table must be bounds-checked before it is sized.
	sectionOff := 2 + 2 + 4 + 16 + 4 + 16 + 4
	copy(data[sectionOff+4:sectionOff+8], wirebuild.AppendUint32(nil, 1<<28))
	if _, err := model.DecodePropertySet("SummaryInformation", data); !errors.Is(err, model.ErrPropertySetCorrupt) {
		t.Fatalf("expected ErrPropertySetCorrupt, got %v", err)
	}
}
