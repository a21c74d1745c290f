package models

import "time"

type Profile struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Full_Name  string    `json:"fullName"`
	Avatar_URL *string   `json:"avatarUrl"`
	Cover_URL  *string   `json:"coverUrl"`
	Created_At time.Time `json:"createdAt" goqu:"skipinsert"`
	Updated_At time.Time `json:"updatedAt" goqu:"skipinsert"`
}

type ProfileUpdate struct {
	Username  *string `json:"username"`
	Full_Name *string `json:"fullName"`
}
