package objects

// GetUserProfileResponse is a user with their posts and their comments.
type GetUserProfileResponse struct {
	Profile *UserDTO    `json:"profile"`
	Threads []ThreadDTO `json:"threads"`
	Replies []ThreadDTO `json:"replies"`
}

// GetUserThreadsResponse is a user with their top-level posts.
type GetUserThreadsResponse struct {
	User    *UserDTO    `json:"user"`
	Threads []ThreadDTO `json:"threads"`
}

// GetCommunityThreadsResponse is a community with its top-level posts.
type GetCommunityThreadsResponse struct {
	Community *CommunityDTO `json:"community"`
	Threads   []ThreadDTO   `json:"threads"`
}

// GetCommunityProfileResponse is a community with its members and posts.
type GetCommunityProfileResponse struct {
	Community *CommunityDTO `json:"community"`
	Members   []UserDTO     `json:"members"`
	Threads   []ThreadDTO   `json:"threads"`
}
