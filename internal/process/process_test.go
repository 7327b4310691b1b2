package process

import (
	"testing"
	"time"
)

func TestSpawnAndStatusAlive(t *testing.T) {
	p, err := Spawn("sleep", []string{"2"}, false)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer p.Kill()

	if p.Status() != Alive {
		t.Errorf("expected Alive, got %v", p.Status())
	}
	if p.ID() == 0 {
		t.Error("expected non-zero pid")
	}
}

func TestSpawnAndKill(t *testing.T) {
	p, err := Spawn("sleep", []string{"30"}, false)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	if err := p.Kill(); err != nil {
		t.Fatalf("Kill: %v", err)
	}

	if p.Status() != Exited {
		t.Errorf("expected Exited after kill, got %v", p.Status())
	}
}

func TestSpawnExits(t *testing.T) {
	p, err := Spawn("sleep", []string{"0.1"}, false)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	time.Sleep(500 * time.Millisecond)

	if p.Status() != Exited {
		t.Errorf("expected Exited, got %v", p.Status())
	}
}

func TestSpawnUnknownProgram(t *testing.T) {
	_, err := Spawn("pantin-definitely-not-a-real-binary", nil, false)
	if _, ok := err.(*SpawnError); !ok {
		t.Fatalf("expected SpawnError, got %v", err)
	}
}
