package tracker

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	ts "github.com/revolvedev/revolve/timestep"
)

func TestReturnTracksEpisodicReturns(t *testing.T) {
	r := NewReturn("unused")

	r.Track(ts.New(ts.First, 0, 1, nil, 0))
	r.Track(ts.New(ts.Mid, 1, 1, nil, 1))
	r.Track(ts.New(ts.Last, 2, 1, nil, 2))

	r.Track(ts.New(ts.First, 0, 1, nil, 0))
	r.Track(ts.New(ts.Last, -1, 1, nil, 1))

	want := []float64{3, -1}
	if diff := cmp.Diff(want, r.Returns()); diff != "" {
		t.Errorf("incorrect episodic returns (-want +have):\n%s", diff)
	}
}

func TestReturnSaveLoad(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "data", "returns.bin")
	r := NewReturn(filename)

	r.Track(ts.New(ts.First, 0, 1, nil, 0))
	r.Track(ts.New(ts.Last, 5, 1, nil, 1))
	r.Track(ts.New(ts.First, 0, 1, nil, 0))
	r.Track(ts.New(ts.Last, 7, 1, nil, 1))

	if err := r.Save(); err != nil {
		t.Fatal(err)
	}

	data, err := LoadData(filename)
	if err != nil {
		t.Fatal(err)
	}

	want := []float64{5, 7}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Errorf("incorrect saved returns (-want +have):\n%s", diff)
	}
}

func TestLoadDataMissingFile(t *testing.T) {
	_, err := LoadData(filepath.Join(t.TempDir(), "missing.bin"))
	if err == nil {
		t.Error("loading a missing data file should fail")
	}
}
