package types

// TeleportFlag is the per-entity teleport capability. The zero value is
// enabled, matching a freshly created entity.
type TeleportFlag struct {
	disabled bool
	onChange func(old, new bool)
}

// Teleportable reports whether the flag is enabled.
func (f *TeleportFlag) Teleportable() bool {
	return !f.disabled
}

// SetTeleportable updates the flag and notifies the change observer, if any.
// The observer is called on every set, including no-op sets.
func (f *TeleportFlag) SetTeleportable(v bool) {
	old := !f.disabled
	f.disabled = !v
	if f.onChange != nil {
		f.onChange(old, v)
	}
}

// OnChange registers the observer called by SetTeleportable. Passing nil
// removes it.
func (f *TeleportFlag) OnChange(fn func(old, new bool)) {
	f.onChange = fn
}
