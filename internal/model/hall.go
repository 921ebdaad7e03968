package model

// Branch is a physical site of the organization. Halls belong to exactly
// one branch.
type Branch struct {
    ID   int64  `json:"id"`   // branches.id
    Name string `json:"name"` // branches.name
}

// Hall is a bookable room inside a branch.  Halls are read-only to the
// scheduling core; administrators manage them elsewhere.
//
// Fields:
//  ID       – primary key identifier.
//  BranchID – owning branch.
//  Name     – display label, unique per branch.
//  Capacity – seats available in the room.
//  IsActive – inactive halls are hidden from the grid and cannot be booked.
type Hall struct {
    ID       int64  `json:"id"`        // halls.id
    BranchID int64  `json:"branch_id"` // halls.branch_id
    Name     string `json:"name"`      // halls.name
    Capacity int    `json:"capacity"`  // halls.capacity
    IsActive bool   `json:"is_active"` // halls.is_active
}

// Teacher is the second conflict resource.  Bookable is false for staff
// who are on leave or no longer teach.
type Teacher struct {
    ID       int64  `json:"id"`       // teachers.id
    Name     string `json:"name"`     // teachers.full_name
    Bookable bool   `json:"bookable"` // teachers.is_bookable
}
