package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrateURL(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
		want string
	}{
		{
			name: "Схема postgres",
			dsn:  "postgres://u:p@localhost:5432/db?sslmode=disable",
			want: "pgx5://u:p@localhost:5432/db?sslmode=disable",
		},
		{
			name: "Схема postgresql",
			dsn:  "postgresql://u:p@localhost/db",
			want: "pgx5://u:p@localhost/db",
		},
		{
			name: "Параметры пула отбрасываются",
			dsn:  "postgres://u:p@localhost/db?pool_max_conns=2&sslmode=disable&pool_min_conns=1",
			want: "pgx5://u:p@localhost/db?sslmode=disable",
		},
		{
			name: "Строка key=value не меняется",
			dsn:  "host=localhost dbname=db",
			want: "host=localhost dbname=db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, migrateURL(tt.dsn))
		})
	}
}
