// 选民名册批量导入工具：从 CSV 文件或标准输入写库
// 背景：首次部署或周期性对账时需要整册导入；导入为幂等 upsert，可重复执行
package main

import (
	"io"
	"os"

	"voter-geo/internal/ingest"
	"voter-geo/internal/logger"
	"voter-geo/internal/migrate"
	"voter-geo/internal/utils"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	l := logger.Setup()
	l.Info("voter_import_start")

	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		l.Error("db_open_error", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := migrate.EnsureSchema(db); err != nil {
		l.Error("schema_error", "err", err)
		os.Exit(1)
	}

	var in io.Reader = os.Stdin
	if path := os.Getenv("IMPORT_FILE"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			l.Error("input_open_error", "path", path, "err", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	count, err := ingest.ImportCSV(db, in)
	if err != nil {
		l.Error("import_error", "count", count, "err", err)
		os.Exit(1)
	}
	l.Info("voter_import_done", "count", count)
}
