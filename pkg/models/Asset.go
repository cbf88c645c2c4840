package models

import (
	"fmt"
)

var (
	ErrAssetNotFound   = fmt.Errorf("asset not found")
	ErrNothingSelected = fmt.Errorf("no photos selected")
)

type Asset struct {
	BaseModel

	SessionID  string
	Filename   string
	IsSelected bool
}
