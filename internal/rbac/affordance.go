package rbac

// CanActOnRecord decides whether a per-record control (edit, delete,
// reassign) renders for the identity. The record argument is accepted so
// the contract can grow ownership rules later; today all record gating
// reduces to the role check. Call per record render, never cache globally.
func CanActOnRecord(identity *Identity, capability Capability, record any) bool {
	_ = record
	if identity == nil {
		return false
	}
	ok, err := Can(identity.Role, capability)
	return err == nil && ok
}
