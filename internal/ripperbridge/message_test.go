package ripperbridge

import "testing"

func TestParseLineMSG(t *testing.T) {
	msg, err := ParseLine(`MSG:1005,0,1,"Copy complete. 3 titles saved.","Copy complete. %1 titles saved.","3"`)
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if msg.Kind != MessageMSG {
		t.Fatalf("expected MessageMSG, got %v", msg.Kind)
	}
	if msg.MessageCode != 1005 {
		t.Errorf("MessageCode = %d, want 1005", msg.MessageCode)
	}
	if msg.Text != "Copy complete. %1 titles saved." {
		t.Errorf("Text = %q", msg.Text)
	}
}

func TestParseLinePRGV(t *testing.T) {
	msg, err := ParseLine("PRGV:4915,4915,65536")
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if msg.Kind != MessagePRGV || msg.Current != 4915 || msg.Total != 4915 || msg.Max != 65536 {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestParseLineCINFO(t *testing.T) {
	msg, err := ParseLine(`CINFO:2,0,"eng"`)
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if msg.Kind != MessageCINFo {
		t.Fatalf("expected MessageCINFo")
	}
	if msg.Info.Attr != AttrLangCode {
		t.Errorf("Attr = %v, want AttrLangCode", msg.Info.Attr)
	}
	if msg.Info.Value != "eng" {
		t.Errorf("Value = %q", msg.Info.Value)
	}
}

func TestParseLineUnknownAttrIndex(t *testing.T) {
	msg, err := ParseLine(`TINFO:0,9999,0,"whatever"`)
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if msg.Info.Attr != AttrUnknown {
		t.Errorf("expected AttrUnknown for out-of-range index, got %v", msg.Info.Attr)
	}
}

func TestParseLineUnknownTag(t *testing.T) {
	msg, err := ParseLine("SOMENEWTAG:1,2,3")
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if msg.Kind != MessageUnknown {
		t.Errorf("expected MessageUnknown for unrecognized tag")
	}
}
