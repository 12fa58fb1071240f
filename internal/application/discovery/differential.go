package discovery

import "owlsync/internal/domain"

// DiffPlugins compares scanned plugin files with the persisted plugins.
// Added holds the full scanned files (in scan order) so they can be
// persisted; Removed holds only the paths to delete.
func DiffPlugins(scanned []domain.PluginFile, persisted []domain.Plugin) domain.Differential[domain.PluginFile] {
	return differential(scanned, domain.Keys(persisted))
}

// DiffSymlinks compares scanned symlinks with the persisted ones
func DiffSymlinks(scanned []domain.Symlink, persisted []domain.Symlink) domain.Differential[domain.Symlink] {
	return differential(scanned, domain.Keys(persisted))
}

func differential[T domain.Keyed](scanned []T, persisted []string) domain.Differential[T] {
	diff := domain.Diff(domain.Keys(scanned), persisted)

	added := make(map[string]struct{}, len(diff.Added))
	for _, p := range diff.Added {
		added[p] = struct{}{}
	}

	var out domain.Differential[T]
	for _, item := range scanned {
		if _, ok := added[item.Key()]; ok {
			out.Added = append(out.Added, item)
			// a duplicate scanned entry must not be added twice
			delete(added, item.Key())
		}
	}
	out.Removed = diff.Removed

	return out
}
