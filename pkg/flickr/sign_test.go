package flickr

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestSign(t *testing.T) {
	c := New(logrus.New(), &Config{APIKey: "abc123", APISecret: "s3cr3t"})

	tests := []struct {
		name string
		args map[string]string
		want string
	}{
		{
			name: "method call",
			args: map[string]string{
				"api_key": "abc123",
				"method":  "flickr.auth.getFrob",
			},
			// md5("s3cr3t" + "api_keyabc123" + "methodflickr.auth.getFrob")
			want: "58165ba24fbf06e63a0ad2c3ff9a4086",
		},
		{
			name: "upload fields sorted by key",
			args: map[string]string{
				"is_public":  "0",
				"auth_token": "tok-1",
				"api_key":    "abc123",
				"tags":       "",
			},
			// md5("s3cr3t" + "api_keyabc123" + "auth_tokentok-1" + "is_public0" + "tags")
			want: "e91e75912a029e7c858a1cfccf87af62",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.sign(tt.args))
		})
	}
}

func TestSign_Deterministic(t *testing.T) {
	c := New(logrus.New(), &Config{APIKey: "k", APISecret: "s"})

	args := map[string]string{"b": "2", "a": "1", "c": "3"}

	first := c.sign(args)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, c.sign(args))
	}
}
