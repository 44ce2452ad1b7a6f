package cacheaside

// Key derives the cache key for an entity snapshot: "{type}:{id}" for the
// default view and "{type}:{view}:{id}" for a named view.
func Key(entityType, id, view string) string {
	if view == "" {
		return entityType + ":" + id
	}
	return entityType + ":" + view + ":" + id
}
