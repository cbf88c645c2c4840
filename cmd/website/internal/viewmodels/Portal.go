package viewmodels

import "github.com/adampresley/darkroom/pkg/models"

type Portal struct {
	BaseViewModel

	IsOwner       bool
	Studio        *models.Account
	Session       *models.Session
	Assets        []Asset
	SelectedCount int
}

type Asset struct {
	ID           uint
	Filename     string
	DisplayURL   string
	ThumbnailURL string
	IsSelected   bool
}

type AssetURLs interface {
	HasThumbnail(storedName string) bool
	ThumbnailURL(storedName string) string
	UploadURL(storedName string) string
}

// ToAssets falls back to the full image when no thumbnail exists.
func ToAssets(assets []*models.Asset, urls AssetURLs) []Asset {
	result := make([]Asset, 0, len(assets))

	for _, asset := range assets {
		a := Asset{
			ID:           asset.ID,
			Filename:     asset.Filename,
			DisplayURL:   urls.UploadURL(asset.Filename),
			ThumbnailURL: urls.UploadURL(asset.Filename),
			IsSelected:   asset.IsSelected,
		}

		if urls.HasThumbnail(asset.Filename) {
			a.ThumbnailURL = urls.ThumbnailURL(asset.Filename)
		}

		result = append(result, a)
	}

	return result
}
