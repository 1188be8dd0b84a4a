package workspace

import "path/filepath"

// Layout resolves every path under a workspace root's .julie/ directory,
// per the directory layout diagram.
type Layout struct {
	Root string
}

func NewLayout(root string) Layout { return Layout{Root: root} }

func (l Layout) JulieDir() string            { return filepath.Join(l.Root, ".julie") }
func (l Layout) ConfigDir() string           { return filepath.Join(l.JulieDir(), "config") }
func (l Layout) ConfigFile() string          { return filepath.Join(l.ConfigDir(), "julie.toml") }
func (l Layout) RegistryFile() string        { return filepath.Join(l.JulieDir(), "workspace_registry.json") }
func (l Layout) RegistryBackupFile() string  { return l.RegistryFile() + ".backup" }
func (l Layout) UserRegistryFile() string    { return filepath.Join(l.JulieDir(), "user_registry.json") }
func (l Layout) IndexesDir() string          { return filepath.Join(l.JulieDir(), "indexes") }
func (l Layout) IndexDir(workspaceID string) string {
	return filepath.Join(l.IndexesDir(), workspaceID)
}
func (l Layout) DBPath(workspaceID string) string {
	return filepath.Join(l.IndexDir(workspaceID), "db", "symbols.db")
}
func (l Layout) VectorsDir(workspaceID string) string {
	return filepath.Join(l.IndexDir(workspaceID), "vectors")
}
func (l Layout) ModelsDir() string { return filepath.Join(l.JulieDir(), "models") }
func (l Layout) CacheDir() string  { return filepath.Join(l.JulieDir(), "cache") }
func (l Layout) LogsDir() string   { return filepath.Join(l.JulieDir(), "logs") }
