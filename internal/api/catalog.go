package api

// Links carries the canonical URL of a served document.
type Links struct {
	Self string `json:"self"`
}

// Catalog is the document pullconfd serves to a client: every resource
// compiled for the host, dependency-linked and sorted. Data is ordered by
// kind tag, then by primary key, so repeated serializations of the same
// catalog are byte-identical and ETag comparisons hold.
type Catalog struct {
	Links Links      `json:"links"`
	Data  []Resource `json:"data"`
}

// ClientPath returns the canonical URL path of a client's catalog.
func ClientPath(name Hostname) string {
	return "/api/clients/" + name.String()
}
