package checkpointer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// recordingObject records the filenames it was asked to save to
type recordingObject struct {
	saves []string
}

func (r *recordingObject) Save(filename string) error {
	r.saves = append(r.saves, filename)
	return nil
}

func TestNStepCheckpointsOnInterval(t *testing.T) {
	object := &recordingObject{}
	nstep, err := NewNStep(2, object, FileEnumerator("out", "weights",
		".bin"))
	if err != nil {
		t.Fatal(err)
	}

	for episode := 1; episode <= 5; episode++ {
		if err := nstep.Checkpoint(episode); err != nil {
			t.Fatal(err)
		}
	}

	want := []string{
		"out/weights_0.bin",
		"out/weights_1.bin",
	}
	if diff := cmp.Diff(want, object.saves); diff != "" {
		t.Errorf("incorrect checkpoints (-want +have):\n%s", diff)
	}
}

func TestNStepInvalidArguments(t *testing.T) {
	object := &recordingObject{}
	filename := FileEnumerator("out", "weights", ".bin")

	if _, err := NewNStep(0, object, filename); err == nil {
		t.Error("a non-positive interval should be rejected")
	}
	if _, err := NewNStep(1, nil, filename); err == nil {
		t.Error("a nil object should be rejected")
	}
	if _, err := NewNStep(1, object, nil); err == nil {
		t.Error("a nil filename generator should be rejected")
	}
}
