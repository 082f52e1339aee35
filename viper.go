// File: lixenwraith/settings/viper.go
package settings

import (
	"github.com/spf13/viper"
)

// ViperRetriever serves values from a viper instance, for applications
// that already load their configuration through viper. Keys viper does
// not know are not found.
type ViperRetriever struct {
	v *viper.Viper
}

// NewViperRetriever wraps v. A nil v uses viper's global instance.
func NewViperRetriever(v *viper.Viper) *ViperRetriever {
	if v == nil {
		v = viper.GetViper()
	}
	return &ViperRetriever{v: v}
}

func (r *ViperRetriever) Retrieve(f *Field, _ *Settings) (any, error) {
	if !r.v.IsSet(f.Key()) {
		return nil, ErrNotFound
	}
	return r.v.Get(f.Key()), nil
}
