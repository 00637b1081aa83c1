package model

// Inputs is the immutable bundle handed to the model builder: forecasts over
// the horizon plus the site limits.
type Inputs struct {
	Horizon Horizon
	Site    SiteParams
}

func (in Inputs) Validate() error {
	if err := in.Horizon.Validate(); err != nil {
		return err
	}
	return in.Site.Validate()
}
