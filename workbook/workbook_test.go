package workbook_test

import (
	"bytes"
	"testing"

	"github.com/wudi/inventorkit/cfb"
	"github.com/wudi/inventorkit/internal/cfbbuild"
	"github.com/wudi/inventorkit/workbook"
)

func TestExtract(t *testing.T) {
	b := cfbbuild.New()
	b.AddStream("RSeDb", []byte{1})
	b.AddStream("RSeEmbeddings/oleObject1/Workbook", []byte("biff"))
	b.AddStream("RSeEmbeddings/oleObject2/Workbook", []byte("biff2"))

	c, err := cfb.Open(b.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	streams, err := workbook.Extract(c)
	if err != nil {
		t.Fatal(err)
	}
	if len(streams) != 2 {
		t.Fatalf("streams = %+v", streams)
	}
	if streams[0].Storage != "RSeEmbeddings/oleObject1" || streams[0].Name != "Workbook" {
		t.Fatalf("first = %+v", streams[0])
	}
	if !bytes.Equal(streams[1].Data, []byte("biff2")) {
		t.Fatalf("second data = %q", streams[1].Data)
	}
}

func TestExtractNoEmbeddings(t *testing.T) {
	b := cfbbuild.New()
	b.AddStream("RSeDb", []byte{1})
	c, err := cfb.Open(b.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	streams, err := workbook.Extract(c)
	if err != nil || len(streams) != 0 {
		t.Fatalf("streams = %+v err = %v", streams, err)
	}
}
