package main

import (
	"fmt"

	"github.com/dgrijalva/jwt-go"

	echoapi "github.com/trezcool/ripoti/apps/api/echo"
)

func (cli *commandLine) mkToken(tenantID, principalID, role, name, year string) error {
	claims := &echoapi.Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:  principalID,
			Audience: tenantID,
		},
		Name:         name,
		Role:         role,
		AcademicYear: year,
	}
	token, err := echoapi.GenerateToken(cli.conf, claims)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
