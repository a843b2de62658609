package models

import "time"

// Listing is one yacht entry of an inventory snapshot.
type Listing struct {
	ID       string // ID is the stable identifier taken from the listing URL path.
	URL      string
	Name     string
	Price    string // Price is kept as the site formats it.
	Location string
}

// Snapshot is the full inventory captured at one point in time.
type Snapshot struct {
	Date     time.Time
	Listings []Listing
}
