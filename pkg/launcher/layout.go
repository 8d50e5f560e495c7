package launcher

import (
	"path/filepath"
	"runtime"
)

// Layout names the files the launcher reads, relative to its directory.
type Layout struct {
	EnvDir    string   `yaml:"env_dir" mapstructure:"env_dir"`
	Manifest  string   `yaml:"manifest" mapstructure:"manifest"`
	Entry     string   `yaml:"entry" mapstructure:"entry"`
	Bootstrap []string `yaml:"bootstrap" mapstructure:"bootstrap"`

	goos string
}

// DefaultLayout returns the fixed layout for the running platform.
func DefaultLayout() Layout {
	return DefaultLayoutFor(runtime.GOOS)
}

// DefaultLayoutFor returns the fixed layout for goos.
func DefaultLayoutFor(goos string) Layout {
	l := Layout{
		EnvDir:   "venv",
		Manifest: "requirements.txt",
		Entry:    "main.py",
		goos:     goos,
	}
	if goos == "windows" {
		l.Bootstrap = []string{"python", "py"}
	} else {
		l.Bootstrap = []string{"python3", "python"}
	}
	return l
}

// GOOS returns the platform the layout was built for.
func (l Layout) GOOS() string {
	if l.goos == "" {
		return runtime.GOOS
	}
	return l.goos
}

// BinDir is the environment directory holding its executables.
func (l Layout) BinDir() string {
	if l.GOOS() == "windows" {
		return filepath.Join(l.EnvDir, "Scripts")
	}
	return filepath.Join(l.EnvDir, "bin")
}

// Marker is the file whose presence means the environment is provisioned.
func (l Layout) Marker() string {
	if l.GOOS() == "windows" {
		return filepath.Join(l.BinDir(), "activate.bat")
	}
	return filepath.Join(l.BinDir(), "activate")
}

// Interpreter is the environment's own Python executable.
func (l Layout) Interpreter() string {
	if l.GOOS() == "windows" {
		return filepath.Join(l.BinDir(), "python.exe")
	}
	return filepath.Join(l.BinDir(), "python")
}

// merge fills empty fields of l from def.
func (l Layout) merge(def Layout) Layout {
	if l.EnvDir == "" {
		l.EnvDir = def.EnvDir
	}
	if l.Manifest == "" {
		l.Manifest = def.Manifest
	}
	if l.Entry == "" {
		l.Entry = def.Entry
	}
	if len(l.Bootstrap) == 0 {
		l.Bootstrap = def.Bootstrap
	}
	l.goos = def.goos
	return l
}
