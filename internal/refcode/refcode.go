package refcode

import (
	"strings"
	"time"

	"github.com/speps/go-hashids/v2"
)

// Generator derives short human-readable reference codes for feedback
// submissions, so a student can quote one when contacting an administrator.
type Generator struct {
	h *hashids.HashID
}

func NewGenerator(salt string) (*Generator, error) {
	data := hashids.NewData()
	data.Salt = salt
	data.MinLength = 8
	h, err := hashids.NewWithData(data)
	if err != nil {
		return nil, err
	}
	return &Generator{h: h}, nil
}

// Code encodes the submitter and submission time into a code like
// FB-8K4QXZ1P. Codes are display-only and never decoded.
func (g *Generator) Code(userID int64, at time.Time) (string, error) {
	encoded, err := g.h.EncodeInt64([]int64{userID, at.UnixMilli()})
	if err != nil {
		return "", err
	}
	return "FB-" + strings.ToUpper(encoded), nil
}
