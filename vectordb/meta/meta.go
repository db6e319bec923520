package meta

// GetString returns the metadata value for key or an empty string.
func GetString(metadata map[string]string, key string) string {
	if metadata == nil {
		return ""
	}
	return metadata[key]
}
