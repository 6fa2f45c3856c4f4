// Package config holds the tunables of a run. Defaults are complete; the
// host can layer a YAML file and VOXOS_* environment variables on top.
package config

import (
	"time"

	"voxos/display"
	"voxos/input"
	"voxos/render"
	"voxos/world"
)

type Config struct {
	Display Display `yaml:"display" json:"display"`
	Memory  Memory  `yaml:"memory" json:"memory"`
	Loop    Loop    `yaml:"loop" json:"loop"`
	World   World   `yaml:"world" json:"world"`
	Render  Render  `yaml:"render" json:"render"`
	Input   Input   `yaml:"input" json:"input"`
	Handoff Handoff `yaml:"handoff" json:"handoff"`
}

type Display struct {
	// Width and Height request a graphics mode; 0 keeps the current one.
	Width  int `yaml:"width" json:"width" env:"VOXOS_DISPLAY_WIDTH"`
	Height int `yaml:"height" json:"height" env:"VOXOS_DISPLAY_HEIGHT"`
	// Scale is how many device pixels one rendered pixel covers.
	Scale int `yaml:"scale" json:"scale" env:"VOXOS_DISPLAY_SCALE"`
}

type Memory struct {
	ScratchBytes uint64 `yaml:"scratch_bytes" json:"scratch_bytes" env:"VOXOS_MEMORY_SCRATCH_BYTES"`
	// MachineBytes sizes the simulated machine on the host.
	MachineBytes uint64 `yaml:"machine_bytes" json:"machine_bytes" env:"VOXOS_MEMORY_MACHINE_BYTES"`
}

type Loop struct {
	MaxFrameDelta time.Duration `yaml:"max_frame_delta" json:"max_frame_delta" env:"VOXOS_LOOP_MAX_FRAME_DELTA"`
	// TargetHz paces the headless host runner.
	TargetHz int `yaml:"target_hz" json:"target_hz" env:"VOXOS_LOOP_TARGET_HZ"`
}

type World struct {
	Seed         uint64  `yaml:"seed" json:"seed" env:"VOXOS_WORLD_SEED"`
	SizeChunks   int     `yaml:"size_chunks" json:"size_chunks" env:"VOXOS_WORLD_SIZE_CHUNKS"`
	HeightChunks int     `yaml:"height_chunks" json:"height_chunks" env:"VOXOS_WORLD_HEIGHT_CHUNKS"`
	EditRange    float32 `yaml:"edit_range" json:"edit_range" env:"VOXOS_WORLD_EDIT_RANGE"`
	TickRate     int     `yaml:"tick_rate" json:"tick_rate" env:"VOXOS_WORLD_TICK_RATE"`
}

type Render struct {
	MaxDistance float32 `yaml:"max_distance" json:"max_distance" env:"VOXOS_RENDER_MAX_DISTANCE"`
	MaxSteps    int     `yaml:"max_steps" json:"max_steps" env:"VOXOS_RENDER_MAX_STEPS"`
	FOV         float32 `yaml:"fov" json:"fov" env:"VOXOS_RENDER_FOV"`
}

type Input struct {
	// Sensitivity is radians of turn per pointer count.
	Sensitivity float32 `yaml:"sensitivity" json:"sensitivity" env:"VOXOS_INPUT_SENSITIVITY"`
	// CursorSpeed is cursor pixels per pointer count.
	CursorSpeed float64 `yaml:"cursor_speed" json:"cursor_speed" env:"VOXOS_INPUT_CURSOR_SPEED"`
	// RequirePointer makes a missing pointer a boot failure.
	RequirePointer bool `yaml:"require_pointer" json:"require_pointer" env:"VOXOS_INPUT_REQUIRE_POINTER"`
}

type Handoff struct {
	ExitBootServices  bool `yaml:"exit_boot_services" json:"exit_boot_services" env:"VOXOS_HANDOFF_EXIT_BOOT_SERVICES"`
	ReclaimBootMemory bool `yaml:"reclaim_boot_memory" json:"reclaim_boot_memory" env:"VOXOS_HANDOFF_RECLAIM_BOOT_MEMORY"`
}

// Default returns a 800×600 display rendered at half resolution.
func Default() Config {
	wc := world.DefaultConfig()
	rc := render.DefaultOptions()
	return Config{
		Display: Display{Width: 800, Height: 600, Scale: 2},
		Memory:  Memory{ScratchBytes: 64 << 10, MachineBytes: 256 << 20},
		Loop:    Loop{MaxFrameDelta: wc.MaxFrameDelta, TargetHz: 60},
		World: World{
			Seed:         wc.Seed,
			SizeChunks:   wc.SizeChunks,
			HeightChunks: wc.HeightChunks,
			EditRange:    wc.EditRange,
			TickRate:     wc.TickRate,
		},
		Render:  Render{MaxDistance: rc.MaxDistance, MaxSteps: rc.MaxSteps, FOV: rc.FOV},
		Input:   Input{Sensitivity: wc.Sensitivity, CursorSpeed: 1},
		Handoff: Handoff{ExitBootServices: true, ReclaimBootMemory: true},
	}
}

func (c Config) WorldConfig() world.Config {
	return world.Config{
		Seed:          c.World.Seed,
		SizeChunks:    c.World.SizeChunks,
		HeightChunks:  c.World.HeightChunks,
		EditRange:     c.World.EditRange,
		TickRate:      c.World.TickRate,
		MaxFrameDelta: c.Loop.MaxFrameDelta,
		Sensitivity:   c.Input.Sensitivity,
	}
}

// SetWorld replaces the world settings with wc, as a replay needs.
func (c *Config) SetWorld(wc world.Config) {
	c.World = World{
		Seed:         wc.Seed,
		SizeChunks:   wc.SizeChunks,
		HeightChunks: wc.HeightChunks,
		EditRange:    wc.EditRange,
		TickRate:     wc.TickRate,
	}
	c.Loop.MaxFrameDelta = wc.MaxFrameDelta
	c.Input.Sensitivity = wc.Sensitivity
}

func (c Config) DisplayOptions() display.Options {
	return display.Options{Width: c.Display.Width, Height: c.Display.Height, Scale: c.Display.Scale}
}

func (c Config) RenderOptions() render.Options {
	return render.Options{MaxDistance: c.Render.MaxDistance, MaxSteps: c.Render.MaxSteps, FOV: c.Render.FOV}
}

// InputOptions maps pointer counts to cursor pixels. Look sensitivity
// belongs to the world.
func (c Config) InputOptions() input.Options {
	return input.Options{Sensitivity: c.Input.CursorSpeed}
}
