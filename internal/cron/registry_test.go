package cron

import "testing"

func TestRegistryPreservesOrderAndSkipsNil(t *testing.T) {
	first := &testJob{name: "first"}
	second := &testJob{name: "second"}
	registry := NewRegistry(first, nil, second)
	registry.Register(nil)
	registry.Register(&testJob{name: "third"})

	jobs := registry.Jobs()
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}
	names := []string{"first", "second", "third"}
	for i, want := range names {
		if jobs[i].Name() != want {
			t.Fatalf("job %d: expected %s, got %s", i, want, jobs[i].Name())
		}
	}
}

func TestRegistryJobsReturnsCopy(t *testing.T) {
	registry := NewRegistry(&testJob{name: "only"})
	jobs := registry.Jobs()
	jobs[0] = &testJob{name: "replaced"}
	if registry.Jobs()[0].Name() != "only" {
		t.Fatalf("expected registry unaffected by caller mutation")
	}
}
