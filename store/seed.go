package store

import "greenmap/models"

// seedReports is the collection used when no snapshot can be loaded.
func seedReports() []models.Report {
	return []models.Report{
		{ID: "1", Type: models.TreePlantation, Latitude: 51.505, Longitude: -0.09, LocationName: "Central Park London", Description: "Planted 50 oak trees.", ReportedBy: "Eco Warriors", Timestamp: "2024-05-20T10:00:00Z"},
		{ID: "2", Type: models.PollutionHotspot, Latitude: 51.51, Longitude: -0.1, LocationName: "River Thames Bank", Description: "Large amount of plastic waste.", ReportedBy: "GreenPeace", Timestamp: "2024-05-18T14:30:00Z"},
		{ID: "3", Type: models.TreePlantation, Latitude: 51.52, Longitude: -0.12, LocationName: "Regent's Park", Description: "Community planting event.", ReportedBy: "Alex Green", Timestamp: "2024-05-21T11:00:00Z"},
		{ID: "4", Type: models.TreePlantation, Latitude: 51.49, Longitude: -0.11, LocationName: "Hyde Park Corner", Description: "Planted cherry blossom trees.", ReportedBy: "Alex Green", Timestamp: "2024-04-15T09:00:00Z"},
		{ID: "5", Type: models.PollutionHotspot, Latitude: 51.515, Longitude: -0.08, LocationName: "City Alleyway", Description: "Overflowing bins and litter.", ReportedBy: "GreenPeace", Timestamp: "2024-04-25T18:00:00Z"},
		{ID: "6", Type: models.TreePlantation, Latitude: 51.50, Longitude: -0.13, LocationName: "Soho Square Gardens", Description: "Added new flower beds and 5 trees.", ReportedBy: "Eco Warriors", Timestamp: "2024-03-10T12:00:00Z"},
	}
}

func seedNews() []models.NewsArticle {
	return []models.NewsArticle{
		{ID: 1, Title: "Global Reforestation Efforts Reach New Heights", Excerpt: "A new report shows a 15% increase in worldwide tree planting initiatives over the past year.", Date: "2024-05-20", ImageURL: "https://picsum.photos/seed/news1/400/200"},
		{ID: 2, Title: "Innovative Technology Turns Plastic Waste Into Fuel", Excerpt: "Startups are developing new methods to tackle the plastic pollution crisis in our oceans.", Date: "2024-05-18", ImageURL: "https://picsum.photos/seed/news2/400/200"},
		{ID: 3, Title: "Community Gardens Transform Urban Landscapes", Excerpt: "Cities are embracing green spaces, with community-led projects improving air quality and biodiversity.", Date: "2024-05-15", ImageURL: "https://picsum.photos/seed/news3/400/200"},
	}
}
