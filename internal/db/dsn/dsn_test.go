package dsn

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/restcore/restcore/internal/config"
)

func TestCreate(t *testing.T) {
	tests := []struct {
		name string
		db   config.DB
		want string
	}{
		{
			name: "url wins",
			db:   config.DB{URL: "postgres://u:p@h:5432/d", Host: "ignored"},
			want: "postgres://u:p@h:5432/d",
		},
		{
			name: "postgres",
			db: config.DB{
				GormEngine: "postgres", Host: "localhost", Port: 5432, User: "u", Password: "p", Name: "d",
				TimeZone: "UTC", Extras: "sslmode=disable",
			},
			want: "host=localhost port=5432 user=u password=p dbname=d TimeZone=UTC sslmode=disable",
		},
		{
			name: "postgres quoted values",
			db: config.DB{
				GormEngine: "postgres", Host: "localhost", Port: 5432, User: "u", Password: `it's a \secret`, Name: "my db",
			},
			want: `host=localhost port=5432 user=u password='it\'s a \\secret' dbname='my db'`,
		},
		{
			name: "postgres empty password",
			db:   config.DB{GormEngine: "postgres", Host: "localhost", Port: 5432, User: "u", Name: "d"},
			want: "host=localhost port=5432 user=u password='' dbname=d",
		},
		{
			name: "mysql default extras",
			db:   config.DB{GormEngine: "mysql", Host: "db", Port: 3306, User: "u", Password: "p", Name: "d"},
			want: "u:p@tcp(db:3306)/d?charset=utf8mb4&parseTime=True",
		},
		{
			name: "mysql time zone",
			db: config.DB{
				GormEngine: "mysql", Host: "db", Port: 3306, User: "u", Password: "p", Name: "d",
				TimeZone: "Europe/Berlin", Extras: "parseTime=True",
			},
			want: "u:p@tcp(db:3306)/d?parseTime=True&loc=Europe%2FBerlin",
		},
		{
			name: "sqlite",
			db:   config.DB{GormEngine: "sqlite", Name: "restcore.db", Extras: "_pragma=foreign_keys(1)"},
			want: "restcore.db?_pragma=foreign_keys(1)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Create(&config.Config{DB: tt.db}))
		})
	}
}
