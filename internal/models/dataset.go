package models

import "time"

// Dataset is one uploaded dataset row. CleanedData is always the normalized form of RawData.
type Dataset struct {
	ID            int64     `db:"id" json:"id"`
	UserID        int64     `db:"user_id" json:"userId"`
	DatasetName   string    `db:"dataset_name" json:"datasetName"`
	RawData       string    `db:"raw_data" json:"rawData"`
	CleanedData   string    `db:"cleaned_data" json:"cleanedData"`
	ImageURL      *string   `db:"image_url" json:"imageUrl"`
	FinalValue    *string   `db:"final_value" json:"finalValue"`
	CombinedTotal *float64  `db:"combined_total" json:"combinedTotal"`
	ColorCode     string    `db:"color_code" json:"colorCode"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// DatasetWithOwner decorates a dataset with its uploader for staff listings.
type DatasetWithOwner struct {
	Dataset
	OwnerEmail    string   `db:"owner_email" json:"ownerEmail"`
	OwnerUsername string   `db:"owner_username" json:"ownerUsername"`
	OwnerRole     UserRole `db:"owner_role" json:"ownerRole"`
}

// PublicDataset is the unauthenticated projection of a dataset.
type PublicDataset struct {
	ID            int64     `db:"id" json:"id"`
	DatasetName   string    `db:"dataset_name" json:"datasetName"`
	FinalValue    *string   `db:"final_value" json:"finalValue"`
	CombinedTotal *float64  `db:"combined_total" json:"combinedTotal"`
	ColorCode     string    `db:"color_code" json:"colorCode"`
	ImageURL      *string   `db:"image_url" json:"imageUrl"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// ReferenceEntry is the instructor-defined final value for a dataset name.
// NameKey is the lower-cased name and is unique.
type ReferenceEntry struct {
	ID            int64     `db:"id" json:"id"`
	DatasetName   string    `db:"dataset_name" json:"datasetName"`
	NameKey       string    `db:"name_key" json:"-"`
	FinalValue    string    `db:"final_value" json:"finalValue"`
	CombinedTotal *float64  `db:"combined_total" json:"combinedTotal"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}
