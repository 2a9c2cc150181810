package provisioning

import "github.com/carverauto/visionconnect/pkg/models"

// CameraModels lists the cameras the onboarding picker offers.
func CameraModels() []models.CameraModel {
	return []models.CameraModel{
		{
			ModelID:      "CP_PLUS_WIFI_V2",
			ModelName:    "CP Plus WiFi Camera V2",
			Manufacturer: "CP Plus",
			SupportsQR:   true,
		},
		{
			ModelID:      "HIKVISION_DS_2CD",
			ModelName:    "Hikvision DS-2CD Series",
			Manufacturer: "Hikvision",
			SupportsQR:   true,
		},
		{
			ModelID:      "GENERIC_ONVIF",
			ModelName:    "Generic ONVIF Camera",
			Manufacturer: "Generic",
			SupportsQR:   true,
		},
	}
}
