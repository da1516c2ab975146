package database

// Opérateurs MongoDB (évite les littéraux dupliqués)
const (
	BSONMatch   = "$match"
	BSONSet     = "$set"
	BSONInc     = "$inc"
	BSONPush    = "$push"
	BSONPull    = "$pull"
	BSONEach    = "$each"
	BSONRegex   = "$regex"
	BSONOptions = "$options"
	BSONIn      = "$in"
	BSONGte     = "$gte"
	BSONLte     = "$lte"
	BSONOr      = "$or"
)
