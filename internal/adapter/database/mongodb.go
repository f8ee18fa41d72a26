package database

func mongoOutput(dir string) []string {
	return []string{"--out", dir}
}
