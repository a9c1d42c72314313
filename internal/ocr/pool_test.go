package ocr

import (
	"image"
	"testing"
)

type fakeEngine struct {
	closed    bool
	variables []Variable
	text      string
}

func (e *fakeEngine) SetVariable(v Variable) error {
	e.variables = append(e.variables, v)
	return nil
}

func (e *fakeEngine) Recognize(img *image.Gray) (string, error) {
	return e.text, nil
}

func (e *fakeEngine) Close() error {
	e.closed = true
	return nil
}

func TestEnginePoolReusesReturnedInstance(t *testing.T) {
	var created int
	factory := func(language string, variables []Variable) (Engine, error) {
		created++
		return &fakeEngine{text: "hello"}, nil
	}
	p := NewEnginePool(factory, "eng", []Variable{{Name: "tessedit_pageseg_mode", Value: "6"}})

	inst, err := p.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if created != 1 {
		t.Fatalf("created = %d, want 1", created)
	}
	if err := inst.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	inst2, err := p.Get()
	if err != nil {
		t.Fatalf("Get (second): %v", err)
	}
	if created != 1 {
		t.Fatalf("created = %d after reuse, want 1 (no new instance)", created)
	}
	_ = inst2.Close()
}

func TestEngineCacheSharesPoolPerLanguage(t *testing.T) {
	cache := NewEngineCache(func(language string, variables []Variable) (Engine, error) {
		return &fakeEngine{}, nil
	})
	p1 := cache.Pool("eng")
	p2 := cache.Pool("eng")
	if p1 != p2 {
		t.Fatal("expected the same pool instance for the same language")
	}
	p3 := cache.Pool("fre")
	if p3 == p1 {
		t.Fatal("expected a distinct pool for a different language")
	}
}
