package model

import "time"

// Room represents a rentable space listed by a renter. Prices are stored
// as integer currency units per hour; amenities and images are JSON
// arrays in the database and decoded into string slices by the
// repository layer.
//
// Fields:
//  ID           – primary key identifier.
//  OwnerID      – user ID of the renter who listed the room.
//  Name         – display name of the room.
//  Description  – optional free-text description.
//  Type         – room category (e.g. "Meeting Room", "Studio").
//  Location     – city or district used for search.
//  Address      – full street address.
//  Capacity     – maximum number of guests.
//  PricePerHour – rental price per whole hour, integer currency units.
//  Amenities    – list of amenity labels.
//  Images       – list of image URLs.
//  Rating       – average review score (nil when unreviewed).
//  ReviewCount  – number of reviews behind Rating.
//  IsAvailable  – whether the room accepts new bookings.
//  IsFeatured   – whether the room is promoted on the landing page.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Room struct {
	ID           uint64    // rooms.id
	OwnerID      uint64    // rooms.owner_id
	Name         string    // rooms.name
	Description  *string   // rooms.description (nullable)
	Type         string    // rooms.type
	Location     string    // rooms.location
	Address      string    // rooms.address
	Capacity     int       // rooms.capacity
	PricePerHour int64     // rooms.price_per_hour
	Amenities    []string  // rooms.amenities (JSON array)
	Images       []string  // rooms.images (JSON array)
	Rating       *float64  // rooms.rating (nullable)
	ReviewCount  int       // rooms.review_count
	IsAvailable  bool      // rooms.is_available
	IsFeatured   bool      // rooms.is_featured
	CreatedAt    time.Time // rooms.created_at
	UpdatedAt    time.Time // rooms.updated_at
}
