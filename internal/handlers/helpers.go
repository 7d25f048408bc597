package handlers

import "github.com/yukikurage/study-group-api/internal/models"

func viewerID(principal *models.User) uint64 {
	if principal == nil {
		return 0
	}
	return principal.ID
}
