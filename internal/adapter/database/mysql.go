package database

import "path/filepath"

func mysqlOutput(dir string) []string {
	return []string{"--result-file=" + filepath.Join(dir, "dump.sql")}
}
