package workspace

// DemoSeed returns the workspace served when no seed file is configured.
func DemoSeed() Seed {
	return Seed{
		Version: SeedVersion,
		Projects: []Project{
			{
				ID:   "proj-petstore",
				Name: "Petstore",
				Collections: []Collection{
					{
						ID:          "col-pets",
						Name:        "Pets",
						Description: "Pet inventory endpoints",
						Requests: []Request{
							{ID: "req-list-pets", Name: "List pets", Method: "GET", URL: "{{baseUrl}}/pets", Params: []KeyValue{{Key: "limit", Value: "20", Enabled: true}}},
							{
								ID:      "req-create-pet",
								Name:    "Create pet",
								Method:  "POST",
								URL:     "{{baseUrl}}/pets",
								Headers: []KeyValue{{Key: "Content-Type", Value: "application/json", Enabled: true}},
								Body:    `{"name":"Rex"}`,
							},
							{ID: "req-get-pet", Name: "Get pet", Method: "GET", URL: "{{baseUrl}}/pets/1"},
						},
					},
					{
						ID:   "col-store",
						Name: "Store",
						Requests: []Request{
							{ID: "req-inventory", Name: "Inventory", Method: "GET", URL: "{{baseUrl}}/store/inventory"},
						},
					},
				},
			},
		},
		Environments: []Environment{
			{ID: "env-local", Name: "Local", IsDefault: true, Variables: []KeyValue{{Key: "baseUrl", Value: "http://localhost:8080", Enabled: true}}},
			{ID: "env-staging", Name: "Staging", Variables: []KeyValue{{Key: "baseUrl", Value: "https://staging.example.com", Enabled: true}}},
		},
	}
}
