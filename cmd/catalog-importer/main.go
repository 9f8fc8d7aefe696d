// cmd/catalog-importer - loads a reward catalog JSON file into the database
package main

import (
	"encoding/json"
	"log"
	"os"

	"clickmill/database"
	"clickmill/models"
)

type CatalogFile struct {
	Powers       []models.Power       `json:"powers"`
	Achievements []models.Achievement `json:"achievements"`
}

func main() {
	path := "./catalog.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatal("Failed to read catalog file:", err)
	}

	var catalog CatalogFile
	if err := json.Unmarshal(data, &catalog); err != nil {
		log.Fatal("Failed to parse catalog file:", err)
	}

	database.InitDB()
	db := database.GetDB()

	imported := 0
	for i := range catalog.Powers {
		p := &catalog.Powers[i]
		if p.Name == "" {
			log.Printf("Skipping power with empty name")
			continue
		}
		if p.MaxLevel < 1 {
			p.MaxLevel = 1
		}
		if err := db.Where("name = ?", p.Name).FirstOrCreate(p).Error; err != nil {
			log.Printf("Failed to import power %q: %v", p.Name, err)
			continue
		}
		imported++
	}

	for i := range catalog.Achievements {
		a := &catalog.Achievements[i]
		if a.Name == "" || a.Threshold <= 0 {
			log.Printf("Skipping achievement with missing name or threshold")
			continue
		}
		if a.RewardType == "" {
			a.RewardType = models.RewardNone
		}
		if err := db.Where("name = ?", a.Name).FirstOrCreate(a).Error; err != nil {
			log.Printf("Failed to import achievement %q: %v", a.Name, err)
			continue
		}
		imported++
	}

	log.Printf("✅ Imported %d catalog entries from %s", imported, path)
}
