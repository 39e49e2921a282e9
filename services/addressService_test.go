package services

import (
	"fmt"

	"github.com/Kariqs/pizzaking-api/utils"
)

func (s *ServiceSuite) TestFirstAddressBecomesDefault() {
	first, err := CreateAddress(s.ctx, s.customer.ID, AddressInput{Street: "Rue 1", City: "Abidjan"})
	s.Require().NoError(err)
	s.True(first.IsDefault)

	second, err := CreateAddress(s.ctx, s.customer.ID, AddressInput{Street: "Rue 2", City: "Abidjan"})
	s.Require().NoError(err)
	s.False(second.IsDefault)

	third, err := CreateAddress(s.ctx, s.customer.ID, AddressInput{Street: "Rue 3", City: "Abidjan", IsDefault: true})
	s.Require().NoError(err)
	s.True(third.IsDefault)

	addresses, err := ListAddresses(s.ctx, s.customer.ID)
	s.Require().NoError(err)
	s.Require().Len(addresses, 3)
	s.Equal(third.ID, addresses[0].ID)
	defaults := 0
	for _, address := range addresses {
		if address.IsDefault {
			defaults++
		}
	}
	s.Equal(1, defaults)
}

func (s *ServiceSuite) TestAddressLimit() {
	for i := 0; i < 5; i++ {
		_, err := CreateAddress(s.ctx, s.customer.ID, AddressInput{Street: fmt.Sprintf("Rue %d", i), City: "Bamako"})
		s.Require().NoError(err)
	}
	_, err := CreateAddress(s.ctx, s.customer.ID, AddressInput{Street: "Rue 6", City: "Bamako"})
	s.requireCode(err, utils.CodeResourceExhausted)

	_, err = CreateAddress(s.ctx, s.other.ID, AddressInput{Street: "Rue 1", City: "Bamako"})
	s.NoError(err)
}

func (s *ServiceSuite) TestDeleteDefaultPromotesNewest() {
	first, err := CreateAddress(s.ctx, s.customer.ID, AddressInput{Street: "Rue 1", City: "Dakar"})
	s.Require().NoError(err)
	_, err = CreateAddress(s.ctx, s.customer.ID, AddressInput{Street: "Rue 2", City: "Dakar"})
	s.Require().NoError(err)
	newest, err := CreateAddress(s.ctx, s.customer.ID, AddressInput{Street: "Rue 3", City: "Dakar"})
	s.Require().NoError(err)

	s.Require().NoError(DeleteAddress(s.ctx, s.customer.ID, first.ID))

	addresses, err := ListAddresses(s.ctx, s.customer.ID)
	s.Require().NoError(err)
	s.Require().Len(addresses, 2)
	s.Equal(newest.ID, addresses[0].ID)
	s.True(addresses[0].IsDefault)
}

func (s *ServiceSuite) TestAddressOwnership() {
	address, err := CreateAddress(s.ctx, s.customer.ID, AddressInput{Street: "Rue 1", City: "Lomé"})
	s.Require().NoError(err)

	_, err = UpdateAddress(s.ctx, s.other.ID, address.ID, AddressInput{Street: "Rue 9", City: "Lomé"})
	s.requireCode(err, utils.CodeNotFound)
	s.requireCode(DeleteAddress(s.ctx, s.other.ID, address.ID), utils.CodeNotFound)
	_, err = SetDefaultAddress(s.ctx, s.other.ID, address.ID)
	s.requireCode(err, utils.CodeNotFound)
}

func (s *ServiceSuite) TestSetDefaultAndUpdateAddress() {
	first, err := CreateAddress(s.ctx, s.customer.ID, AddressInput{Street: "Rue 1", City: "Cotonou"})
	s.Require().NoError(err)
	second, err := CreateAddress(s.ctx, s.customer.ID, AddressInput{Street: "Rue 2", City: "Cotonou"})
	s.Require().NoError(err)

	updated, err := SetDefaultAddress(s.ctx, s.customer.ID, second.ID)
	s.Require().NoError(err)
	s.True(updated.IsDefault)

	renamed, err := UpdateAddress(s.ctx, s.customer.ID, first.ID, AddressInput{Label: "Office", Street: "Rue 1", City: "Cotonou"})
	s.Require().NoError(err)
	s.Equal("Office", renamed.Label)
	s.False(renamed.IsDefault)

	renamed, err = UpdateAddress(s.ctx, s.customer.ID, second.ID, AddressInput{Street: "Rue 2 bis", City: "Cotonou"})
	s.Require().NoError(err)
	s.True(renamed.IsDefault)
}
