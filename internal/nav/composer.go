package nav

import "github.com/pitchlab/pitchlab/internal/rbac"

// VisibleItems filters allItems through the access policy for the given
// identity. Pure: no network, no reordering — the result is a subsequence
// of allItems. A nil identity yields an empty list; protected surfaces all
// assume sign-in.
func VisibleItems(identity *rbac.Identity, allItems []MenuItem) []MenuItem {
	if identity == nil {
		return []MenuItem{}
	}
	visible := make([]MenuItem, 0, len(allItems))
	for _, item := range allItems {
		if item.RequiredCapability == "" {
			visible = append(visible, item)
			continue
		}
		if ok, err := rbac.Can(identity.Role, item.RequiredCapability); err == nil && ok {
			visible = append(visible, item)
		}
	}
	return visible
}
