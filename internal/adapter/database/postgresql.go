package database

// pg_dump's directory format writes one file per table into dir.
func postgresOutput(dir string) []string {
	return []string{"--format=directory", "--file=" + dir}
}
